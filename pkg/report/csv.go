package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/Ramsey-B/clover/pkg/models"
)

var filesHeaders = []string{
	"Salesforce ID",
	"HubSpot Object",
	"HubSpot Record ID",
	"HubSpot Record URL",
	"Files Count",
	"Files Uploaded",
	"Note Created",
	"Status",
	"Reason",
}

var chatterHeaders = []string{
	"Salesforce Record ID",
	"HubSpot Object",
	"HubSpot Record ID",
	"HubSpot Record URL",
	"Feed Items Count",
	"Notes Created",
	"Status",
	"Reason",
}

// WriteFilesCSV renders files-flow audit rows in their collected order.
func WriteFilesCSV(w io.Writer, rows []models.FileAuditRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(filesHeaders); err != nil {
		return errors.Wrap(err, "failed to write report header")
	}
	for _, row := range rows {
		record := []string{
			row.SalesforceID,
			row.HubSpotObject,
			row.HubSpotID,
			row.RecordURL,
			strconv.Itoa(row.FilesCount),
			strconv.Itoa(row.FilesUploaded),
			strconv.FormatBool(row.NoteCreated),
			string(row.Status),
			row.Reason,
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrap(err, "failed to write report row")
		}
	}
	writer.Flush()
	return errors.Wrap(writer.Error(), "failed to flush report")
}

// WriteChatterCSV renders chatter-flow audit rows in their collected order.
func WriteChatterCSV(w io.Writer, rows []models.ChatterAuditRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(chatterHeaders); err != nil {
		return errors.Wrap(err, "failed to write report header")
	}
	for _, row := range rows {
		record := []string{
			row.SalesforceID,
			row.HubSpotObject,
			row.HubSpotID,
			row.RecordURL,
			strconv.Itoa(row.FeedItemsCount),
			strconv.Itoa(row.NotesCreated),
			string(row.Status),
			row.Reason,
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrap(err, "failed to write report row")
		}
	}
	writer.Flush()
	return errors.Wrap(writer.Error(), "failed to flush report")
}

// WriteCSV renders the collector's rows for its run kind.
func WriteCSV(w io.Writer, collector *Collector) error {
	if collector.Kind() == models.RunKindChatter {
		return WriteChatterCSV(w, collector.ChatterRows())
	}
	return WriteFilesCSV(w, collector.FileRows())
}
