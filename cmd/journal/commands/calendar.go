package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/tradejournal/internal/calendar"
)

// calendarCmd manages market holidays
var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "휴장일 캘린더 관리",
}

var calendarImportCmd = &cobra.Command{
	Use:   "import",
	Short: "거래소 휴장일 페이지 가져오기",
	Long: `거래소 휴장일 HTML 페이지(파일 또는 URL)에서 휴장일을 추출해 저장합니다.
표의 각 행에서 날짜 셀과 이름 셀을 찾습니다.

Example:
  go run ./cmd/journal calendar import --file holidays.html --year 2026
  go run ./cmd/journal calendar import --url https://www.nyse.com/markets/hours-calendars`,
	RunE: runCalendarImport,
}

var calendarListCmd = &cobra.Command{
	Use:   "list",
	Short: "저장된 휴장일 목록",
	RunE:  runCalendarList,
}

var (
	calendarFile string
	calendarURL  string
	calendarYear int
)

func init() {
	rootCmd.AddCommand(calendarCmd)
	calendarCmd.AddCommand(calendarImportCmd)
	calendarCmd.AddCommand(calendarListCmd)

	calendarImportCmd.Flags().StringVar(&calendarFile, "file", "", "HTML 파일 경로")
	calendarImportCmd.Flags().StringVar(&calendarURL, "url", "", "HTML 페이지 URL (기본: HOLIDAY_SOURCE_URL)")
	calendarImportCmd.Flags().IntVar(&calendarYear, "year", 0, "연도 없는 날짜의 기본 연도 (기본: 올해)")
}

func runCalendarImport(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(2 * time.Minute)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cal := a.reporter.Calendar()
	year := calendarYear
	if year == 0 {
		year = cal.Local(time.Now()).Year()
	}

	holidays, err := loadHolidays(ctx, a, year, cal.Location)
	if err != nil {
		return err
	}
	if len(holidays) == 0 {
		return errors.New("no holidays found in source")
	}

	saved, err := a.store.SaveHolidays(ctx, cal.Code, holidays)
	if err != nil {
		return fmt.Errorf("save holidays: %w", err)
	}

	widths := []int{12, 40}
	PrintTableHeader(os.Stdout, []string{"DATE", "NAME"}, widths)
	for _, h := range holidays {
		PrintTableRow(os.Stdout, []string{h.DayKey(), h.Name}, widths)
	}
	fmt.Println()
	PrintSuccess(os.Stdout, fmt.Sprintf("Saved %d holidays for %s", saved, cal.Code))
	return nil
}

func loadHolidays(ctx context.Context, a *app, year int, loc *time.Location) ([]calendar.Holiday, error) {
	switch {
	case calendarFile != "" && calendarURL != "":
		return nil, errors.New("use either --file or --url")
	case calendarFile != "":
		f, err := os.Open(calendarFile)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", calendarFile, err)
		}
		defer f.Close()
		return calendar.ParseHolidayHTML(f, year, loc)
	default:
		url := calendarURL
		if url == "" {
			url = a.cfg.Calendar.HolidaySourceURL
		}
		return calendar.NewFetcher(holidayHTTPClient(a), url, a.log).Fetch(ctx, year, loc)
	}
}

func runCalendarList(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(time.Minute)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cal := a.reporter.Calendar()
	fmt.Printf("Holidays (%s, %s):\n\n", cal.Code, cal.Location)

	widths := []int{12, 40}
	PrintTableHeader(os.Stdout, []string{"DATE", "NAME"}, widths)
	for _, h := range cal.Holidays() {
		PrintTableRow(os.Stdout, []string{h.DayKey(), h.Name}, widths)
	}
	return nil
}
