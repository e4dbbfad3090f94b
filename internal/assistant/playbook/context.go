package playbook

// SchemeContext is the subset of a scheme profile the playbooks personalise
// with. Empty strings are absent values.
type SchemeContext struct {
	SchemeName            string `json:"scheme_name,omitempty"`
	ManagingAgentName     string `json:"managing_agent_name,omitempty"`
	ContactEmail          string `json:"contact_email,omitempty"`
	ContactPhone          string `json:"contact_phone,omitempty"`
	EmergencyContactPhone string `json:"emergency_contact_phone,omitempty"`
	EmergencyContactNotes string `json:"emergency_contact_notes,omitempty"`
	HeatingType           string `json:"heating_type,omitempty"`
	HeatingControls       string `json:"heating_controls,omitempty"`
	WasteProvider         string `json:"waste_provider,omitempty"`
	BinStorageNotes       string `json:"bin_storage_notes,omitempty"`
	ParkingType           string `json:"parking_type,omitempty"`
	ParkingNotes          string `json:"parking_notes,omitempty"`
	SnagReportingMethod   string `json:"snag_reporting_method,omitempty"`
	SnagReportingDetails  string `json:"snag_reporting_details,omitempty"`
}

// SchemeFields is the list of profile column names a SchemeContext carries.
var SchemeFields = []string{
	"scheme_name",
	"managing_agent_name",
	"contact_email",
	"contact_phone",
	"emergency_contact_phone",
	"emergency_contact_notes",
	"heating_type",
	"heating_controls",
	"waste_provider",
	"bin_storage_notes",
	"parking_type",
	"parking_notes",
	"snag_reporting_method",
	"snag_reporting_details",
}

func IsSchemeField(name string) bool {
	_, ok := (&SchemeContext{}).fieldPtr(name)
	return ok
}

// Field returns the value stored under a profile column name.
func (c SchemeContext) Field(name string) string {
	p, ok := c.fieldPtr(name)
	if !ok {
		return ""
	}
	return *p
}

// Set stores value under a profile column name and reports whether the name
// is known.
func (c *SchemeContext) Set(name, value string) bool {
	p, ok := c.fieldPtr(name)
	if !ok {
		return false
	}
	*p = value
	return true
}

func (c *SchemeContext) fieldPtr(name string) (*string, bool) {
	switch name {
	case "scheme_name":
		return &c.SchemeName, true
	case "managing_agent_name":
		return &c.ManagingAgentName, true
	case "contact_email":
		return &c.ContactEmail, true
	case "contact_phone":
		return &c.ContactPhone, true
	case "emergency_contact_phone":
		return &c.EmergencyContactPhone, true
	case "emergency_contact_notes":
		return &c.EmergencyContactNotes, true
	case "heating_type":
		return &c.HeatingType, true
	case "heating_controls":
		return &c.HeatingControls, true
	case "waste_provider":
		return &c.WasteProvider, true
	case "bin_storage_notes":
		return &c.BinStorageNotes, true
	case "parking_type":
		return &c.ParkingType, true
	case "parking_notes":
		return &c.ParkingNotes, true
	case "snag_reporting_method":
		return &c.SnagReportingMethod, true
	case "snag_reporting_details":
		return &c.SnagReportingDetails, true
	}
	return nil, false
}
