// Package export формирует XLSX-выгрузку клиентов.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/magabrotheeeer/reseller-panel/internal/models"
)

// SheetName — имя листа с клиентами.
const SheetName = "Clients"

// ContentType — MIME-тип XLSX.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var headers = []string{"ID", "Name", "Username", "Phone", "Server", "Plan", "Expiration date", "Status", "Access URL"}

var statusColors = map[models.Status]string{
	models.StatusActive:     "#10B981",
	models.StatusNearExpiry: "#F59E0B",
	models.StatusExpired:    "#EF4444",
}

// WriteClients записывает клиентов в книгу XLSX и отправляет её в w.
// serverNames и planNames подставляют имена вместо ID; отсутствующие ID выводятся числом.
func WriteClients(w io.Writer, clients []*models.ClientView, serverNames, planNames map[int64]string) error {
	const op = "export.WriteClients"

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4F46E5"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "I1", headerStyle); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	statusStyles := make(map[models.Status]int, len(statusColors))
	for status, color := range statusColors {
		id, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: color, Bold: true}})
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		statusStyles[status] = id
	}

	for i, c := range clients {
		row := i + 2
		values := []any{
			c.ID,
			c.Name,
			c.Username,
			c.Phone,
			nameOr(serverNames, c.ServerID),
			nameOr(planNames, c.PlanID),
			c.ExpirationDate.Format(models.DateLayout),
			string(c.Status),
			c.AccessURL,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if style, ok := statusStyles[c.Status]; ok {
			statusCell := fmt.Sprintf("H%d", row)
			if err := f.SetCellStyle(SheetName, statusCell, statusCell, style); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 8)
	_ = f.SetColWidth(SheetName, "B", "F", 20)
	_ = f.SetColWidth(SheetName, "G", "H", 16)
	_ = f.SetColWidth(SheetName, "I", "I", 40)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func nameOr(names map[int64]string, id int64) any {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}
