package global

import (
	"bytes"
	"github.com/markusressel/hddfanctrl/internal/ui"
	"github.com/mgutz/ansi"
	"github.com/tomlazar/table"
)

func tableConfig() *table.Config {
	return &table.Config{
		ShowIndex:       false,
		Color:           !NoColor,
		AlternateColors: true,
		TitleColorCode:  ansi.ColorCode("white+buf"),
		AltColorCodes: []string{
			ansi.ColorCode("white"),
			ansi.ColorCode("white:236"),
		},
	}
}

// PrintTables prints the given tables below each other, tables without rows are skipped
func PrintTables(tables ...table.Table) {
	var printed []string
	for _, tab := range tables {
		if tab.Rows == nil {
			continue
		}
		var buf bytes.Buffer
		if err := tab.WriteTable(&buf, tableConfig()); err != nil {
			ui.Fatal("Error printing table: %v", err)
		}
		printed = append(printed, buf.String())
	}

	for idx, tableString := range printed {
		if idx < len(printed)-1 {
			ui.Printf("%s", tableString)
		} else {
			ui.Printfln("%s", tableString)
		}
	}
}
