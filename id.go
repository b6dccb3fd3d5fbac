package ledger

import "github.com/campreg/ledger/id"

// Identifier aliases so callers of the engine rarely need the id package.
type (
	ID            = id.ID
	Prefix        = id.Prefix
	ParticipantID = id.ParticipantID
	UserID        = id.UserID
)

// Parsers for the identifiers accepted by write operations.
var (
	ParseParticipantID = id.ParseParticipantID
	ParseUserID        = id.ParseUserID
)
