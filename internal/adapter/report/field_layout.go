package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"searchfox/internal/domain"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func layoutTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Inherit(cellStyle)
			}
			return cellStyle
		})
	return t.String()
}

// FieldLayout renders a class's size, base classes and fields as tables.
func FieldLayout(l domain.FieldLayout) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Field Layout: %s\n\n", l.ClassName)
	fmt.Fprintf(&b, "Size: %d bytes", l.SizeBytes)
	if l.AlignmentBytes > 0 {
		fmt.Fprintf(&b, ", Alignment: %d bytes", l.AlignmentBytes)
	}
	b.WriteString("\n\n")

	if len(l.Bases) > 0 {
		rows := make([][]string, 0, len(l.Bases))
		for _, base := range l.Bases {
			rows = append(rows, []string{u(base.Offset), u(base.Size), base.Type})
		}
		b.WriteString("Base Classes:\n")
		b.WriteString(layoutTable([]string{"Offset", "Size", "Type"}, rows))
		b.WriteString("\n\n")
	}

	if len(l.Fields) > 0 {
		rows := make([][]string, 0, len(l.Fields))
		for _, f := range l.Fields {
			rows = append(rows, []string{u(f.Offset), u(f.Size), f.Type, f.Name})
		}
		b.WriteString("Fields:\n")
		b.WriteString(layoutTable([]string{"Offset", "Size", "Type", "Name"}, rows))
		b.WriteByte('\n')
	}
	return b.String()
}

func u(v uint64) string {
	return strconv.FormatUint(v, 10)
}
