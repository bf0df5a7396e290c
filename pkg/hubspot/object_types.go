package hubspot

import "fmt"

// objectTypeIDs maps standard object names to their HubSpot type IDs.
var objectTypeIDs = map[string]string{
	"companies":            "0-2",
	"contacts":             "0-1",
	"deals":                "0-3",
	"tickets":              "0-5",
	"appointments":         "0-421",
	"calls":                "0-48",
	"communications":       "0-18",
	"courses":              "0-410",
	"emails":               "0-49",
	"feedback_submissions": "0-19",
	"invoices":             "0-53",
	"leads":                "0-136",
	"line_items":           "0-8",
	"listings":             "0-420",
	"marketing_events":     "0-54",
	"meetings":             "0-47",
	"notes":                "0-46",
	"orders":               "0-123",
	"payments":             "0-101",
	"postal_mail":          "0-116",
	"products":             "0-7",
	"quotes":               "0-14",
	"services":             "0-162",
	"subscriptions":        "0-69",
	"tasks":                "0-27",
	"users":                "0-115",
}

// noteAssociationTypeIDs maps object names to the HUBSPOT_DEFINED
// note-to-record association type.
var noteAssociationTypeIDs = map[string]int{
	"contacts":  202,
	"companies": 190,
	"deals":     214,
	"tickets":   226,
}

// defaultNoteAssociationTypeID is used for any object without a dedicated
// association type (custom objects associate like contacts).
const defaultNoteAssociationTypeID = 202

// ObjectTypeID returns the type ID for an object name. Unknown names are
// treated as custom object fully qualified names.
func ObjectTypeID(objectName string) string {
	if id, ok := objectTypeIDs[objectName]; ok {
		return id
	}
	return fmt.Sprintf("2-%s", objectName)
}

// NoteAssociationTypeID returns the association type ID linking a note to a
// record of the given object.
func NoteAssociationTypeID(objectName string) int {
	if id, ok := noteAssociationTypeIDs[objectName]; ok {
		return id
	}
	return defaultNoteAssociationTypeID
}

// RecordURL builds the UI URL of a destination record.
func RecordURL(uiDomain string, portalID int64, objectName, recordID string) string {
	return fmt.Sprintf("https://%s/contacts/%d/record/%s/%s", uiDomain, portalID, ObjectTypeID(objectName), recordID)
}
