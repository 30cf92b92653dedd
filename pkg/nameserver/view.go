package nameserver

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// renderViewLong builds the "VIEW -l" long-format listing: one row per
// visible file with its primary node and owner, grounded on the
// teacher's internal/cli/output.PrintTable rendering conventions. The
// rendered table is split back into lines because the wire protocol
// frames a body one line per frame, not as a single blob.
func (s *Server) renderViewLong(names []string) []string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"NAME", "PRIMARY", "OWNER"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, name := range names {
		primary := "-"
		if nodeID, ok := s.routing.Lookup(name); ok {
			primary = strconv.FormatUint(uint64(nodeID), 10)
		}
		owner, _ := s.acl.Owner(name)
		table.Append([]string{name, primary, owner})
	}
	table.Render()

	text := strings.TrimRight(buf.String(), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
