package sfexport

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func newTestReader() *Reader {
	return NewReader(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReader_ValidateFilesExport(t *testing.T) {
	ctx := context.Background()
	reader := newTestReader()

	t.Run("accepts exports with all required columns", func(t *testing.T) {
		dir := t.TempDir()
		links := writeCSV(t, dir, "links.csv", "Id,LinkedEntityId,ContentDocumentId\n")
		versions := writeCSV(t, dir, "versions.csv", "Id,ContentDocumentId,Title,PathOnClient,VersionData\n")

		assert.NoError(t, reader.ValidateFilesExport(ctx, links, versions))
	})

	t.Run("error names the file and the missing column", func(t *testing.T) {
		dir := t.TempDir()
		links := writeCSV(t, dir, "links.csv", "Id,LinkedEntityId\n")
		versions := writeCSV(t, dir, "versions.csv", "Id,ContentDocumentId,Title,PathOnClient,VersionData\n")

		err := reader.ValidateFilesExport(ctx, links, versions)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "links.csv")
		assert.Contains(t, err.Error(), "ContentDocumentId")
	})

	t.Run("tolerates a UTF-8 BOM and extra columns", func(t *testing.T) {
		dir := t.TempDir()
		links := writeCSV(t, dir, "links.csv", "\ufeffId,LinkedEntityId,ContentDocumentId,ShareType\n")
		versions := writeCSV(t, dir, "versions.csv", "Id,ContentDocumentId,Title,PathOnClient,VersionData\n")

		assert.NoError(t, reader.ValidateFilesExport(ctx, links, versions))
	})

	t.Run("missing file is an error", func(t *testing.T) {
		dir := t.TempDir()
		versions := writeCSV(t, dir, "versions.csv", "Id,ContentDocumentId,Title,PathOnClient,VersionData\n")

		err := reader.ValidateFilesExport(ctx, filepath.Join(dir, "absent.csv"), versions)
		assert.Error(t, err)
	})
}

func TestReader_ReadLinks(t *testing.T) {
	ctx := context.Background()
	reader := newTestReader()

	dir := t.TempDir()
	path := writeCSV(t, dir, "links.csv",
		"Id,LinkedEntityId,ContentDocumentId\n"+
			"L1,003AAA,069AAA\n"+
			"L2,,069BBB\n"+
			"L3,003CCC,\n"+
			"L4,006DDD,069DDD\n")

	links, err := reader.ReadLinks(ctx, path)
	require.NoError(t, err)

	require.Len(t, links, 2, "rows with blank required cells are skipped")
	assert.Equal(t, "003AAA", links[0].LinkedEntityID)
	assert.Equal(t, "006DDD", links[1].LinkedEntityID)
}

func TestReader_FileInfo(t *testing.T) {
	ctx := context.Background()
	reader := newTestReader()
	inline := base64.StdEncoding.EncodeToString([]byte("inline"))

	t.Run("backfills missing payloads from the export folder", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "068BBB"), []byte("exported"), 0o644))

		versions := []models.ContentVersion{
			{ID: "068AAA", ContentDocumentID: "069AAA", PathOnClient: "a.pdf", VersionData: inline},
			{ID: "068BBB", ContentDocumentID: "069BBB", PathOnClient: "b.pdf"},
		}
		wanted := map[string]struct{}{"069AAA": {}, "069BBB": {}}

		info := reader.FileInfo(ctx, versions, dir, wanted)
		require.Len(t, info, 2)
		assert.Equal(t, inline, info["069AAA"].VersionData)
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("exported")), info["069BBB"].VersionData)
	})

	t.Run("excludes documents whose payload cannot be loaded", func(t *testing.T) {
		dir := t.TempDir()
		versions := []models.ContentVersion{
			{ID: "068AAA", ContentDocumentID: "069AAA", PathOnClient: "a.pdf"},
		}
		info := reader.FileInfo(ctx, versions, dir, map[string]struct{}{"069AAA": {}})
		assert.Empty(t, info)
	})

	t.Run("ignores documents outside the wanted set", func(t *testing.T) {
		versions := []models.ContentVersion{
			{ID: "068AAA", ContentDocumentID: "069AAA", PathOnClient: "a.pdf", VersionData: inline},
		}
		info := reader.FileInfo(ctx, versions, "", map[string]struct{}{"069ZZZ": {}})
		assert.Empty(t, info)
	})

	t.Run("normalizes client paths to their basename", func(t *testing.T) {
		versions := []models.ContentVersion{
			{ID: "068AAA", ContentDocumentID: "069AAA", PathOnClient: "C:/exports/docs/a.PDF", VersionData: inline},
		}
		info := reader.FileInfo(ctx, versions, "", map[string]struct{}{"069AAA": {}})
		require.Len(t, info, 1)
		assert.Equal(t, "a.PDF", info["069AAA"].PathOnClient)
	})
}

func TestReader_AnalyzeLinks(t *testing.T) {
	ctx := context.Background()
	reader := newTestReader()

	dir := t.TempDir()
	path := writeCSV(t, dir, "links.csv",
		"Id,LinkedEntityId,ContentDocumentId\n"+
			"L1,003AAA,069AAA\n"+
			"L2,003AAA,069BBB\n"+
			"L3,003CCC,069AAA\n"+
			"L4,006DDD,069DDD\n")

	counts, err := reader.AnalyzeLinks(ctx, path)
	require.NoError(t, err)

	require.Len(t, counts, 2)
	assert.Equal(t, models.PrefixCount{Prefix: "003", Records: 2, Files: 2}, counts[0])
	assert.Equal(t, models.PrefixCount{Prefix: "006", Records: 1, Files: 1}, counts[1])
}