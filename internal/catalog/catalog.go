package catalog

import (
	"fmt"
	"sort"

	"awakening-quiz-engine/internal/domain"
)

// MalformedRecord is one quarantined question with the reason it was dropped
// from the playable set.
type MalformedRecord struct {
	Key    domain.QuestionKey `json:"key"`
	Reason string             `json:"reason"`
}

// BookReport is the per-book validation outcome. A declared/actual count
// mismatch is a diagnostic, never a load failure.
type BookReport struct {
	BookID        string            `json:"bookId"`
	ActualCount   int               `json:"actualCount"`
	DeclaredCount int               `json:"declaredCount"`
	Malformed     []MalformedRecord `json:"malformedQuestions,omitempty"`
}

// CountMismatch reports whether the author-declared total disagrees with the
// parsed playable count.
func (r BookReport) CountMismatch() bool {
	return r.DeclaredCount != r.ActualCount
}

// Report maps book id to its validation outcome.
type Report map[string]BookReport

// Catalog is the validated, immutable index over the dataset. It is built
// once by Load and safe to share across concurrent sessions without locking.
type Catalog struct {
	books    map[string]*domain.Book
	chapters map[string]map[string]struct{}
	order    []string
	report   Report
}

// Load walks every book and question in the raw dataset, normalizes each
// record, cross-checks back-references, and quarantines malformed records
// into the report. Structural problems are aggregated here rather than
// surfaced one error per bad record; Load itself only fails on an empty
// dataset.
func Load(dataset RawDataset) (*Catalog, error) {
	if len(dataset) == 0 {
		return nil, fmt.Errorf("load catalog: empty dataset")
	}

	c := &Catalog{
		books:    make(map[string]*domain.Book, len(dataset)),
		chapters: make(map[string]map[string]struct{}, len(dataset)),
		report:   make(Report, len(dataset)),
	}

	for bookID, raw := range dataset {
		book := &domain.Book{
			ID:            bookID,
			Title:         raw.BookTitle,
			Icon:          raw.Icon,
			DeclaredTotal: raw.TotalQuestions,
			Legendary: domain.LegendaryBeing{
				ID:     raw.Legendary.LegendaryID,
				Name:   raw.Legendary.LegendaryName,
				Powers: raw.Legendary.Powers,
				Icon:   raw.Legendary.Icon,
			},
		}

		report := BookReport{BookID: bookID, DeclaredCount: raw.TotalQuestions}
		chapters := make(map[string]struct{})
		seen := make(map[domain.QuestionKey]struct{}, len(raw.Questions))

		for _, rawQ := range raw.Questions {
			q, err := Normalize(rawQ, bookID)
			if err != nil {
				report.Malformed = append(report.Malformed, MalformedRecord{
					Key:    domain.QuestionKey{BookID: bookID, ChapterID: rawQ.ChapterID, ID: rawQ.ID},
					Reason: err.Error(),
				})
				continue
			}
			if _, dup := seen[q.Key]; dup {
				report.Malformed = append(report.Malformed, MalformedRecord{
					Key:    q.Key,
					Reason: "duplicate question id within chapter",
				})
				continue
			}
			seen[q.Key] = struct{}{}
			chapters[q.Key.ChapterID] = struct{}{}
			book.Questions = append(book.Questions, q)
		}

		report.ActualCount = len(book.Questions)
		c.books[bookID] = book
		c.chapters[bookID] = chapters
		c.report[bookID] = report
		c.order = append(c.order, bookID)
	}

	// Map iteration order is random; keep listing order stable so repeated
	// loads of the same dataset are indistinguishable.
	sort.Strings(c.order)
	return c, nil
}

// Book returns the validated book for id.
func (c *Catalog) Book(bookID string) (*domain.Book, error) {
	book, ok := c.books[bookID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownBook, bookID)
	}
	return book, nil
}

// Books lists every book in stable id order.
func (c *Catalog) Books() []*domain.Book {
	books := make([]*domain.Book, 0, len(c.order))
	for _, id := range c.order {
		books = append(books, c.books[id])
	}
	return books
}

// Questions returns the playable questions of a book, optionally filtered to
// one chapter. An empty chapterID means the whole book.
func (c *Catalog) Questions(bookID, chapterID string) ([]domain.Question, error) {
	book, err := c.Book(bookID)
	if err != nil {
		return nil, err
	}
	if chapterID == "" {
		return book.Questions, nil
	}
	if _, ok := c.chapters[bookID][chapterID]; !ok {
		return nil, fmt.Errorf("%w: %q in book %q", domain.ErrUnknownChapter, chapterID, bookID)
	}
	questions := make([]domain.Question, 0)
	for _, q := range book.Questions {
		if q.Key.ChapterID == chapterID {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

// Report returns the validation report produced at load time.
func (c *Catalog) Report() Report {
	return c.report
}
