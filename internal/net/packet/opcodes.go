package packet

// Client opcodes.
const (
	C_OPCODE_HELLO   byte = 0x01 // S alias, S password
	C_OPCODE_COMMAND byte = 0x02 // S driver command
	C_OPCODE_PING    byte = 0x03 // D client token
	C_OPCODE_PLAY    byte = 0x04 // start a game from the main menu
	C_OPCODE_QUIT    byte = 0x05
)

// ProtocolVersion is sent in S_READY. Bump it when a packet layout changes.
const ProtocolVersion uint16 = 1

// Server opcodes.
const (
	S_OPCODE_READY   byte = 0x80 // H protocol version, D session id
	S_OPCODE_WELCOME byte = 0x81 // S alias, D ammo
	S_OPCODE_ERROR   byte = 0x82 // S message
	S_OPCODE_PONG    byte = 0x83 // D client token, D tick
	S_OPCODE_SCORE   byte = 0x84 // D score, D delta
	S_OPCODE_SECTOR  byte = 0x85 // S sector, H actors
	S_OPCODE_AMMO    byte = 0x86 // D ammo (-1 = unlimited)
	S_OPCODE_STATE   byte = 0x87 // S game state
)
