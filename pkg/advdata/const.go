package advdata

// MaxLegacyLength is the largest payload a legacy advertising PDU carries.
// Extended advertising allows more; Parse does not enforce either limit.
const MaxLegacyLength = 31

// Advertising data types, Supplement to the Bluetooth Core Specification, Part A.
const (
	TypeFlags            = 0x01 // Flags
	TypeSomeUUID16       = 0x02 // Incomplete List of 16-bit Service Class UUIDs
	TypeAllUUID16        = 0x03 // Complete List of 16-bit Service Class UUIDs
	TypeSomeUUID32       = 0x04 // Incomplete List of 32-bit Service Class UUIDs
	TypeAllUUID32        = 0x05 // Complete List of 32-bit Service Class UUIDs
	TypeSomeUUID128      = 0x06 // Incomplete List of 128-bit Service Class UUIDs
	TypeAllUUID128       = 0x07 // Complete List of 128-bit Service Class UUIDs
	TypeShortName        = 0x08 // Shortened Local Name
	TypeCompleteName     = 0x09 // Complete Local Name
	TypeTxPower          = 0x0A // Tx Power Level
	TypeServiceData16    = 0x16 // Service Data - 16-bit UUID
	TypeAppearance       = 0x19 // Appearance
	TypeManufacturerData = 0xFF // Manufacturer Specific Data
)

// Advertising flags
const (
	FlagLimitedDiscoverable = 0x01 // LE Limited Discoverable Mode
	FlagGeneralDiscoverable = 0x02 // LE General Discoverable Mode
	FlagLEOnly              = 0x04 // BR/EDR Not Supported
)

var typeNames = map[byte]string{
	TypeFlags:            "Flags",
	TypeSomeUUID16:       "Incomplete 16-bit Service UUIDs",
	TypeAllUUID16:        "Complete 16-bit Service UUIDs",
	TypeSomeUUID32:       "Incomplete 32-bit Service UUIDs",
	TypeAllUUID32:        "Complete 32-bit Service UUIDs",
	TypeSomeUUID128:      "Incomplete 128-bit Service UUIDs",
	TypeAllUUID128:       "Complete 128-bit Service UUIDs",
	TypeShortName:        "Shortened Local Name",
	TypeCompleteName:     "Complete Local Name",
	TypeTxPower:          "Tx Power Level",
	TypeServiceData16:    "Service Data (16-bit)",
	TypeAppearance:       "Appearance",
	TypeManufacturerData: "Manufacturer Specific Data",
}

// TypeName returns a human readable name for an advertising data type.
func TypeName(t byte) string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "Unknown"
}
