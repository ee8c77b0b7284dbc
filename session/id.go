package session

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	transferIDPrefix = "transfer_"
	handoffSuffix    = "_handoff"
)

// NewTransferID returns "transfer_<unix millis>_<16 hex chars>".
// The suffix comes from a random v4 UUID.
func NewTransferID(now time.Time) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return transferIDPrefix + strconv.FormatInt(now.UnixMilli(), 10) + "_" + hex[:16]
}

// TransferRoomName derives the handoff room name for a transfer id.
func TransferRoomName(transferID string) string {
	return transferID + handoffSuffix
}
