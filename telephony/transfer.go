package telephony

import (
	"context"
	"strings"

	"github.com/BaSui01/warmtransfer/types"
)

// TransferKind selects how a phone call leaves the service.
type TransferKind string

const (
	TransferPSTN TransferKind = "pstn"
	TransferSIP  TransferKind = "sip"
)

// TransferRequest moves a live phone call to another number or SIP URI.
type TransferRequest struct {
	CallSID     string       `json:"callSid"`
	Target      string       `json:"targetNumber"`
	Explanation string       `json:"transferExplanation,omitempty"`
	Kind        TransferKind `json:"transferType,omitempty"`
	DisplayName string       `json:"displayName,omitempty"`
}

// TransferResult reports the redirected call.
type TransferResult struct {
	CallSID string       `json:"callSid"`
	Status  string       `json:"status"`
	Target  string       `json:"target"`
	Kind    TransferKind `json:"transferType"`
}

// Transfer verifies the call exists, then redirects it to a document that
// speaks the explanation and dials the target.
func Transfer(ctx context.Context, c Client, urls URLs, req TransferRequest) (*TransferResult, error) {
	if !c.Configured() {
		return nil, types.NewError(types.ErrServiceUnavailable, "telephony is not configured").WithHTTPStatus(503)
	}
	if strings.TrimSpace(req.CallSID) == "" || strings.TrimSpace(req.Target) == "" {
		return nil, types.NewValidationError("callSid and targetNumber are required")
	}
	if req.Kind == "" {
		req.Kind = TransferPSTN
	}
	if req.Explanation == "" {
		req.Explanation = "Transferring your call."
	}

	if _, err := c.GetCall(ctx, req.CallSID); err != nil {
		return nil, err
	}

	var doc string
	switch req.Kind {
	case TransferSIP:
		doc = urls.SIPTransfer(req.Target, req.DisplayName)
	case TransferPSTN:
		doc = urls.Transfer(req.Target, req.Explanation)
	default:
		return nil, types.NewValidationError("unknown transferType %q", req.Kind)
	}

	call, err := c.RedirectCall(ctx, req.CallSID, doc)
	if err != nil {
		return nil, err
	}
	return &TransferResult{CallSID: call.SID, Status: call.Status, Target: req.Target, Kind: req.Kind}, nil
}
