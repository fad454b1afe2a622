package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"memorial/internal/database"
	"memorial/internal/engine"
)

const statusOK = "OK"

func newReviewCmd() *cobra.Command {
	var (
		from   string
		filter string
		fromDB bool
		runID  string
		list   bool
	)

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Browse the parcels of a run and mark them for manual review",
		Long: "Lists the parcels of a run (all, failed or ambiguous). Use arrows to move,\n" +
			"left/right to change pages, Enter to read the memorial and m to mark a parcel.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if from == "" {
				from = cfg.Output.Dir
			}

			var rows []database.ParcelRow
			if fromDB {
				rows, runID, err = rowsFromDatabase(cmd.Context(), cfg.Database.DBConfig, runID)
			} else {
				var out *engine.Output
				out, err = loadResults(from)
				if err == nil {
					rows, runID = rowsFromOutput(out), out.RunID
				}
			}
			if err != nil {
				return err
			}

			rows, err = filterRows(rows, filter)
			if err != nil {
				return err
			}
			fmt.Printf("Run %s: %d parcels (%s)\n", runID, len(rows), filter)
			if len(rows) == 0 {
				return nil
			}

			if list || !term.IsTerminal(int(os.Stdin.Fd())) {
				for _, r := range rows {
					fmt.Println(rowLine(r))
				}
				return nil
			}

			interactiveReview(rows, runID, filepath.Join(from, marksFile))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "output directory of the run (defaults to output.dir)")
	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "all, failed, ambiguous or ok")
	cmd.Flags().BoolVar(&fromDB, "db", false, "read the run from Oracle instead of results.json")
	cmd.Flags().StringVar(&runID, "run", "", "run id to read from Oracle (defaults to the latest)")
	cmd.Flags().BoolVar(&list, "list", false, "print the list without the interactive browser")
	return cmd
}

// rowsFromOutput flattens resolved parcels and failures into one list.
func rowsFromOutput(out *engine.Output) []database.ParcelRow {
	rows := make([]database.ParcelRow, 0, len(out.Parcels)+len(out.Failures))
	for _, p := range out.Parcels {
		rows = append(rows, database.ParcelRow{
			ParcelID:    p.ParcelID,
			BlockID:     p.BlockID,
			Seq:         p.Seq,
			Status:      statusOK,
			Ambiguous:   p.Ambiguous(),
			Description: p.Description,
		})
	}
	for _, f := range out.Failures {
		rows = append(rows, database.ParcelRow{
			ParcelID:    f.ParcelID,
			BlockID:     f.BlockID,
			Status:      f.Reason,
			Description: f.Detail,
		})
	}
	database.SortRows(rows)
	return rows
}

func rowsFromDatabase(ctx context.Context, c database.DBConfig, runID string) ([]database.ParcelRow, string, error) {
	db, err := database.NewDatabase(ctx, c)
	if err != nil {
		return nil, "", err
	}
	defer db.Close()

	if runID == "" {
		if runID, err = db.LatestRunID(ctx); err != nil {
			return nil, "", fmt.Errorf("no stored run: %w", err)
		}
	}
	rows, err := db.QueryRunParcels(ctx, runID)
	return rows, runID, err
}

// filterRows keeps the rows of one review category.
func filterRows(rows []database.ParcelRow, filter string) ([]database.ParcelRow, error) {
	var keep func(database.ParcelRow) bool
	switch filter {
	case "", "all":
		return rows, nil
	case "failed":
		keep = func(r database.ParcelRow) bool { return r.Status != statusOK }
	case "ambiguous":
		keep = func(r database.ParcelRow) bool { return r.Ambiguous }
	case "ok":
		keep = func(r database.ParcelRow) bool { return r.Status == statusOK && !r.Ambiguous }
	default:
		return nil, fmt.Errorf("unknown filter %q", filter)
	}

	var out []database.ParcelRow
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func rowLine(r database.ParcelRow) string {
	lot := "-"
	if r.Seq > 0 {
		lot = strconv.Itoa(r.Seq)
	}
	color := colorGreen
	status := r.Status
	switch {
	case r.Status != statusOK:
		color = colorRed
	case r.Ambiguous:
		color = colorYellow
		status = "AMBIGUOUS"
	}
	return fmt.Sprintf("%-16s | Block %-6s | Lot %-4s | %s%s%s", r.ParcelID, r.BlockID, lot, color, status, colorReset)
}

// pager tracks the cursor of a paginated list.
type pager struct {
	n        int
	size     int
	page     int
	selected int // within the page
}

func newPager(n, size int) *pager {
	return &pager{n: n, size: size}
}

func (p *pager) pages() int {
	return (p.n + p.size - 1) / p.size
}

// bounds returns the half-open item range of the current page.
func (p *pager) bounds() (int, int) {
	start := p.page * p.size
	end := start + p.size
	if end > p.n {
		end = p.n
	}
	return start, end
}

// current is the index of the selected item.
func (p *pager) current() int {
	start, _ := p.bounds()
	return start + p.selected
}

// move applies a navigation key and reports whether the view changed.
func (p *pager) move(k key) bool {
	start, end := p.bounds()
	switch k {
	case keyUp:
		if p.selected > 0 {
			p.selected--
			return true
		}
	case keyDown:
		if start+p.selected < end-1 {
			p.selected++
			return true
		}
	case keyLeft:
		if p.page > 0 {
			p.page--
			p.selected = 0
			return true
		}
	case keyRight:
		if p.page < p.pages()-1 {
			p.page++
			p.selected = 0
			return true
		}
	}
	return false
}

// interactiveReview presents a paginated list of rows. Up/down navigate
// within a page, left/right change pages, Enter shows the memorial, m marks
// the parcel and Esc exits.
func interactiveReview(rows []database.ParcelRow, runID, marksPath string) {
	const pageSize = 20

	enableVT()

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Println("(interactive selection not supported on this terminal)")
		return
	}
	defer term.Restore(fd, oldState)

	reader := bufio.NewReader(os.Stdin)
	p := newPager(len(rows), pageSize)
	status := ""

	redraw := func() {
		fmt.Print("\033[H\033[2J")
		start, end := p.bounds()
		for i := start; i < end; i++ {
			prefix := "  "
			if i == p.current() {
				prefix = "> "
			}
			// raw mode needs explicit carriage returns
			fmt.Print(prefix + rowLine(rows[i]) + "\r\n")
		}
		fmt.Printf("(↑/↓ navigate, ←/→ page, Enter memorial, m mark, Esc quit)  Page %d/%d\r\n", p.page+1, p.pages())
		if status != "" {
			fmt.Print(status + "\r\n")
		}
	}

	redraw()

	for {
		k, err := readKey(reader)
		if err != nil {
			return
		}
		switch k {
		case keyQuit:
			fmt.Println()
			return
		case keyEnter:
			term.Restore(fd, oldState) // cooked mode while reading
			fmt.Println()
			showRow(os.Stdout, rows[p.current()])

			fmt.Print("\n(press Enter to return)")
			_, _ = bufio.NewReader(os.Stdin).ReadBytes('\n')

			oldState, err = term.MakeRaw(fd)
			if err != nil {
				return
			}
			reader = bufio.NewReader(os.Stdin)
			status = ""
			redraw()
		case keyMark:
			r := rows[p.current()]
			added, err := saveMark(marksPath, runID, r)
			switch {
			case err != nil:
				status = fmt.Sprintf("%sfailed to save mark: %v%s", colorRed, err, colorReset)
			case added:
				status = fmt.Sprintf("marked %s for review", r.ParcelID)
			default:
				status = fmt.Sprintf("%s is already marked", r.ParcelID)
			}
			redraw()
		default:
			if p.move(k) {
				status = ""
				redraw()
			}
		}
	}
}

// showRow prints the memorial of a resolved parcel or the failure detail.
func showRow(w io.Writer, r database.ParcelRow) {
	fmt.Fprintf(w, "Parcel %s, Block %s\n\n", r.ParcelID, r.BlockID)
	if r.Status != statusOK {
		fmt.Fprintf(w, "%sNot described: %s%s\n%s\n", colorRed, r.Status, colorReset, r.Description)
		return
	}
	if r.Ambiguous {
		fmt.Fprintf(w, "%sA confrontation of this parcel was decided by a tie-break.%s\n\n", colorYellow, colorReset)
	}
	fmt.Fprintln(w, r.Description)
}
