package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/samthedataman/resumably/internal/model"
)

const (
	skillsSheet   = "Learned Skills"
	categorySheet = "By Category"
)

// LearnedSkills writes the skill ledger as an xlsx workbook to w. Entries are
// expected in ledger order (most mentioned first).
func LearnedSkills(w io.Writer, entries []model.SkillLearning) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", skillsSheet)
	if _, err := f.NewSheet(categorySheet); err != nil {
		return fmt.Errorf("failed to create category sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	if err := writeSkillsSheet(f, entries, headerStyle); err != nil {
		return fmt.Errorf("failed to write skills sheet: %w", err)
	}
	if err := writeCategorySheet(f, entries, headerStyle); err != nil {
		return fmt.Errorf("failed to write category sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}

func writeSkillsSheet(f *excelize.File, entries []model.SkillLearning, headerStyle int) error {
	f.SetColWidth(skillsSheet, "A", "A", 25)
	f.SetColWidth(skillsSheet, "B", "B", 18)
	f.SetColWidth(skillsSheet, "C", "C", 12)
	f.SetColWidth(skillsSheet, "D", "D", 20)
	f.SetColWidth(skillsSheet, "E", "E", 60)

	if err := writeHeader(f, skillsSheet, []string{"Skill", "Category", "Mentions", "Last Seen", "Contexts"}, headerStyle); err != nil {
		return err
	}

	for i, e := range entries {
		row := i + 2
		values := []any{
			e.SkillName,
			e.Category,
			e.OccurrenceCount,
			e.LastSeen.UTC().Format("2006-01-02 15:04"),
			strings.Join(e.Contexts, " | "),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(skillsSheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeCategorySheet(f *excelize.File, entries []model.SkillLearning, headerStyle int) error {
	f.SetColWidth(categorySheet, "A", "A", 20)
	f.SetColWidth(categorySheet, "B", "C", 14)

	if err := writeHeader(f, categorySheet, []string{"Category", "Skills", "Mentions"}, headerStyle); err != nil {
		return err
	}

	type total struct {
		skills, mentions int
	}
	totals := map[string]*total{}
	for _, e := range entries {
		t, ok := totals[e.Category]
		if !ok {
			t = &total{}
			totals[e.Category] = t
		}
		t.skills++
		t.mentions += e.OccurrenceCount
	}

	categories := make([]string, 0, len(totals))
	for c := range totals {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		a, b := totals[categories[i]], totals[categories[j]]
		if a.mentions != b.mentions {
			return a.mentions > b.mentions
		}
		return categories[i] < categories[j]
	})

	for i, c := range categories {
		row := i + 2
		f.SetCellValue(categorySheet, fmt.Sprintf("A%d", row), c)
		f.SetCellValue(categorySheet, fmt.Sprintf("B%d", row), totals[c].skills)
		f.SetCellValue(categorySheet, fmt.Sprintf("C%d", row), totals[c].mentions)
	}
	return nil
}
