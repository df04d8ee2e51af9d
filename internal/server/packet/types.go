package packet

// Message type discriminators carried in the "type" field.
const (
	TypeTile   = "TILE"
	TypeSample = "SAMPLE"
	TypeHello  = "HELLO"
	TypeValue  = "VALUE"
	TypeError  = "ERROR"
)

// ProtocolVersion is announced in the HELLO message.
const ProtocolVersion = "1"
