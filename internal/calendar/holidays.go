package calendar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/tradejournal/pkg/httputil"
	"github.com/wonny/tradejournal/pkg/logger"
)

var holidayLayouts = []string{
	"2006-01-02",
	"2006.01.02",
	"2006/01/02",
	"01/02/2006",
	"January 2, 2006",
	"Monday, January 2, 2006",
	"Jan 2, 2006",
	"Mon, Jan 2, 2006",
	"2 January 2006",
}

// 연도 없는 표기 (거래소 휴장일 페이지에 흔함)
var yearlessLayouts = []string{
	"January 2",
	"Monday, January 2",
	"Jan 2",
	"Mon, Jan 2",
}

// ParseHolidayHTML extracts holidays from every <table> row of an exchange calendar page.
// A row is a holiday when one of its cells parses as a date; the first other non-empty cell is its name.
// defaultYear fills in year-less dates such as "Monday, January 19".
func ParseHolidayHTML(r io.Reader, defaultYear int, loc *time.Location) ([]Holiday, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse holiday html: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}

	seen := make(map[string]struct{})
	var holidays []Holiday

	doc.Find("table tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}

		var day time.Time
		var name string
		found := false

		cells.Each(func(j int, cell *goquery.Selection) {
			text := strings.Join(strings.Fields(cell.Text()), " ")
			if text == "" {
				return
			}
			if !found {
				if d, ok := parseHolidayDate(text, defaultYear, loc); ok {
					day = d
					found = true
					return
				}
			}
			if name == "" {
				name = text
			}
		})

		if !found {
			return
		}
		key := day.Format("2006-01-02")
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		holidays = append(holidays, Holiday{Date: day, Name: name})
	})

	return holidays, nil
}

func parseHolidayDate(text string, defaultYear int, loc *time.Location) (time.Time, bool) {
	// 각주 표시 제거 (예: "July 3, 2026*")
	text = strings.TrimRight(text, "*† ")
	for _, layout := range holidayLayouts {
		if d, err := time.ParseInLocation(layout, text, loc); err == nil {
			return d, true
		}
	}
	if defaultYear <= 0 {
		return time.Time{}, false
	}
	for _, layout := range yearlessLayouts {
		if d, err := time.ParseInLocation(layout, text, loc); err == nil {
			return time.Date(defaultYear, d.Month(), d.Day(), 0, 0, 0, 0, loc), true
		}
	}
	return time.Time{}, false
}

// Fetcher downloads an exchange holiday page and parses it
// ⭐ SSOT: 휴장일 외부 조회는 이 구조체에서만
type Fetcher struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	url        string
}

// NewFetcher creates a holiday fetcher for url
func NewFetcher(httpClient *httputil.Client, url string, log *logger.Logger) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		logger:     log.Component("calendar"),
		url:        url,
	}
}

// Fetch returns the holidays listed on the configured page
func (f *Fetcher) Fetch(ctx context.Context, year int, loc *time.Location) ([]Holiday, error) {
	if f.url == "" {
		return nil, fmt.Errorf("holiday source url not configured")
	}

	body, err := f.httpClient.GetBytes(ctx, f.url)
	if err != nil {
		return nil, fmt.Errorf("fetch holidays: %w", err)
	}

	holidays, err := ParseHolidayHTML(bytes.NewReader(body), year, loc)
	if err != nil {
		return nil, err
	}

	f.logger.WithFields(map[string]interface{}{
		"url":   f.url,
		"count": len(holidays),
	}).Info("Fetched market holidays")

	return holidays, nil
}
