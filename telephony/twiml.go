package telephony

import (
	"encoding/xml"
	"net/url"
	"strings"
)

const sayVoice = "alice"

// TwiML document nodes.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any
}

type say struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type dial struct {
	XMLName xml.Name `xml:"Dial"`
	Timeout int      `xml:"timeout,attr,omitempty"`
	Nouns   []any
}

type number struct {
	XMLName xml.Name `xml:"Number"`
	Value   string   `xml:",chardata"`
}

type sip struct {
	XMLName  xml.Name `xml:"Sip"`
	Username string   `xml:"username,attr,omitempty"`
	URI      string   `xml:",chardata"`
}

type stream struct {
	XMLName xml.Name    `xml:"Stream"`
	URL     string      `xml:"url,attr"`
	Name    string      `xml:"name,attr,omitempty"`
	Params  []parameter `xml:"Parameter"`
}

type parameter struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

func render(verbs ...any) string {
	out, err := xml.MarshalIndent(twimlResponse{Verbs: verbs}, "", "    ")
	if err != nil {
		// All nodes are plain strings and ints.
		panic(err)
	}
	return xml.Header + string(out)
}

// ConnectTwiML bridges a phone leg into a media room through a media stream.
func ConnectTwiML(streamURL, room, participant string) string {
	return render(
		say{Voice: sayVoice, Text: "Connecting you to the support team. Please hold."},
		dial{Nouns: []any{stream{
			URL:  streamURL,
			Name: room,
			Params: []parameter{
				{Name: "participant_name", Value: participant},
				{Name: "room_name", Value: room},
			},
		}}},
	)
}

// TransferTwiML speaks the explanation, then dials the target number.
func TransferTwiML(explanation, target string) string {
	return render(
		say{Voice: sayVoice, Text: explanation},
		dial{Timeout: 30, Nouns: []any{number{Value: target}}},
		say{Voice: sayVoice, Text: "The transfer could not be completed. Please try again later."},
	)
}

// SIPTransferTwiML dials a SIP URI.
func SIPTransferTwiML(uri, displayName string) string {
	return render(dial{Nouns: []any{sip{Username: displayName, URI: uri}}})
}

// URLs builds the public URLs the provider calls back on.
type URLs struct {
	// BaseURL is this service's externally reachable origin.
	BaseURL string
}

func (u URLs) build(path string, q url.Values) string {
	s := strings.TrimRight(u.BaseURL, "/") + path
	if len(q) > 0 {
		s += "?" + q.Encode()
	}
	return s
}

// Connect returns the connect document URL.
func (u URLs) Connect(room, participant string) string {
	return u.build("/twiml/connect", url.Values{"room": {room}, "participant": {participant}})
}

// Transfer returns the PSTN transfer document URL.
func (u URLs) Transfer(target, explanation string) string {
	return u.build("/twiml/transfer", url.Values{"target": {target}, "explanation": {explanation}})
}

// SIPTransfer returns the SIP transfer document URL.
func (u URLs) SIPTransfer(target, displayName string) string {
	q := url.Values{"target": {target}}
	if displayName != "" {
		q.Set("displayName", displayName)
	}
	return u.build("/twiml/sip-transfer", q)
}

// Status returns the status callback URL.
func (u URLs) Status() string {
	return u.build("/api/v1/telephony/status", nil)
}
