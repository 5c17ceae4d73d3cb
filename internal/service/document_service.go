package service

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/nurpe/repairdesk/internal/model"
	"github.com/nurpe/repairdesk/internal/session"
)

type SheetRenderer interface {
	Render(sheet model.OrderSheet) ([]byte, error)
}

type ListExporter interface {
	Generate(orders []model.Order, generatedAt time.Time) ([]byte, error)
}

type FileResult struct {
	FileName string
	Content  []byte
}

// DocumentService renders printable and spreadsheet views of a session.
type DocumentService struct {
	sheets   SheetRenderer
	lists    ListExporter
	fileName func(model.OrderSheet) string
	clock    clockwork.Clock
}

func NewDocumentService(sheets SheetRenderer, fileName func(model.OrderSheet) string, lists ListExporter, clock clockwork.Clock) *DocumentService {
	return &DocumentService{sheets: sheets, fileName: fileName, lists: lists, clock: clock}
}

// OrderSheet renders the draft as it stands, pending amount included.
func (s *DocumentService) OrderSheet(sess *session.Session) (*FileResult, error) {
	d := sess.Draft()
	if !d.Exists() {
		return nil, ErrNoOrderLoaded
	}

	sheet := model.OrderSheet{
		ID:             d.ID,
		Status:         d.Status,
		IntakeDate:     d.IntakeDate,
		IntakeTime:     d.IntakeTime,
		Phone:          d.ContactPhone,
		Serial:         d.Serial,
		DepartureDate:  d.DepartureDate,
		DepartureTime:  d.DepartureTime,
		ReturnDate:     d.ReturnDate,
		ReturnTime:     d.ReturnTime,
		Amount:         d.Amount,
		Accessories:    d.Accessories,
		Fault:          d.Fault.String(),
		Repair:         d.Repair.String(),
		SpareParts:     d.SpareParts,
		Observations:   d.Observations,
		WithdrawalDate: d.WithdrawalDate,
		WithdrawalTime: d.WithdrawalTime,
		GeneratedAt:    s.clock.Now(),
	}
	if d.ClientID != nil {
		if c, ok := sess.FindClient(*d.ClientID); ok {
			sheet.Contact = c.Name
		}
	}
	if d.EquipmentID != nil {
		if eq, ok := sess.FindEquipment(*d.EquipmentID); ok {
			sheet.Equipment = eq.Label()
		}
	}
	if listed, ok := sess.FindOrder(d.ID); ok {
		if sheet.Contact == "" {
			sheet.Contact = listed.ContactName
		}
		if sheet.Equipment == "" {
			sheet.Equipment = listed.EquipmentText
		}
	}

	content, err := s.sheets.Render(sheet)
	if err != nil {
		return nil, fmt.Errorf("render order sheet: %w", err)
	}
	return &FileResult{FileName: s.fileName(sheet), Content: content}, nil
}

// ExportOrders writes the listed orders matching query to a workbook.
func (s *DocumentService) ExportOrders(sess *session.Session, query string) (*FileResult, error) {
	now := s.clock.Now()
	content, err := s.lists.Generate(sess.SearchOrders(query), now)
	if err != nil {
		return nil, fmt.Errorf("export orders: %w", err)
	}
	return &FileResult{
		FileName: fmt.Sprintf("ordenes_%s.xlsx", now.Format("20060102_1504")),
		Content:  content,
	}, nil
}
