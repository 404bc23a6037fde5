package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
)

func checkFormat(format string) error {
	if !slices.Contains(validFormats, format) {
		return fmt.Errorf("invalid format %q (valid: %s)", format, strings.Join(validFormats, ", "))
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// pageSummary renders the footer shown under paginated tables.
func pageSummary(page, totalPages, shown, total int) string {
	if total == 0 {
		return "No results."
	}
	return fmt.Sprintf("Page %d of %d (%d of %d shown)", page, totalPages, shown, total)
}

func printEntities(w io.Writer, page *entities.Page[*entities.Entity]) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tSTATUS\tUPDATED")
	for _, e := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.ID, dash(e.DisplayName()), dash(e.Email), e.Status, formatTime(e.UpdatedAt))
	}
	tw.Flush()
	fmt.Fprintln(w, pageSummary(page.Page, page.TotalPages(), len(page.Items), page.Total))
}

func printFields(w io.Writer, defs []entities.FieldDefinition) {
	tw := newTable(w)
	fmt.Fprintln(tw, "KEY\tLABEL\tTYPE\tREQUIRED\tOPTIONS\tDEFAULT")
	for _, d := range defs {
		def := "-"
		if d.DefaultValue != nil {
			def = fmt.Sprint(d.DefaultValue)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\t%s\n",
			d.Name, d.Label, d.ValueType, d.Required, dash(strings.Join(d.EnumValues, ", ")), def)
	}
	tw.Flush()
}

func printKeys(w io.Writer, keys []entities.APIKey) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tPREVIEW\tSCOPES\tLAST USED\tSTATUS")
	for _, k := range keys {
		lastUsed := "never"
		if k.LastUsedAt != nil {
			lastUsed = formatTime(*k.LastUsedAt)
		}
		status := "active"
		if !k.IsActive() {
			status = "revoked"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s...\t%s\t%s\t%s\n",
			k.ID, k.Name, k.KeyPrefix, strings.Join(k.Scopes, ","), lastUsed, status)
	}
	tw.Flush()
}

func printAudit(w io.Writer, entries []entities.AuditEntry) {
	tw := newTable(w)
	fmt.Fprintln(tw, "TIME\tACTION\tSUBJECT\tDETAILS")
	for _, e := range entries {
		details := "-"
		if len(e.Details) > 0 {
			b, err := json.Marshal(e.Details)
			if err == nil {
				details = string(b)
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", formatTime(e.CreatedAt), e.Action, dash(e.SubjectID), details)
	}
	tw.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

var stdout io.Writer = os.Stdout
