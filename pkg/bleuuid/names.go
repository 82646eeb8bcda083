package bleuuid

import "github.com/google/uuid"

// MetaWear is the primary service advertised by MbientLab MetaWear boards.
var MetaWear = uuid.MustParse("326a9000-85cb-9195-d9dd-464cfbbae75a")

var knownVendorServices = map[uuid.UUID]string{
	MetaWear: "MetaWear",
}

// Assigned 16-bit service numbers.
var knownServices = map[uint16]string{
	0x1800: "Generic Access",
	0x1801: "Generic Attribute",
	0x1802: "Immediate Alert",
	0x1803: "Link Loss",
	0x1804: "Tx Power",
	0x1805: "Current Time",
	0x1806: "Reference Time Update",
	0x1807: "Next DST Change",
	0x1808: "Glucose",
	0x1809: "Health Thermometer",
	0x180a: "Device Information",
	0x180d: "Heart Rate",
	0x180e: "Phone Alert Status",
	0x180f: "Battery",
	0x1810: "Blood Pressure",
	0x1811: "Alert Notification",
	0x1812: "Human Interface Device",
	0x1813: "Scan Parameters",
	0x1814: "Running Speed and Cadence",
	0x1815: "Automation IO",
	0x1816: "Cycling Speed and Cadence",
	0x1818: "Cycling Power",
	0x1819: "Location and Navigation",
	0x181a: "Environmental Sensing",
	0x181c: "User Data",
	0x181d: "Weight Scale",
	0x1826: "Fitness Machine",
	0xfe59: "Nordic DFU",
}
