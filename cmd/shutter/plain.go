package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mmcdole/shutter/internal/pagination"
)

// runPlain prints up to limit rows of the search results for term. Pages
// are fetched through the controller exactly as the UI would, scrolling one
// row at a time.
func runPlain(w io.Writer, ctrl *pagination.Controller, term string, limit int) error {
	ctrl.SetSearchTerm(term)
	ctrl.Wait()

	total := ctrl.RowCount()
	if total == 0 {
		snap := ctrl.Snapshot()
		if len(snap.Loaded) == 0 {
			return fmt.Errorf("search for %q failed, see the log for details", term)
		}
		fmt.Fprintf(w, "No photos found for %q\n", term)
		return nil
	}

	n := total
	if limit > 0 && limit < n {
		n = limit
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "#\tID\tCAPTION\tAUTHOR\tTHUMB\n")
	for row := 0; row < n; row++ {
		ctrl.Prefetch(row)
		photo, ok := ctrl.RowAt(row)
		if !ok {
			ctrl.Wait()
			photo, ok = ctrl.RowAt(row)
		}
		if !ok {
			fmt.Fprintf(tw, "%d\t-\t(unavailable)\t\t\n", row+1)
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", row+1, photo.ID, oneLine(photo.Caption()), photo.User.Username, photo.URLs.Thumb)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d of %d photos\n", n, total)
	return nil
}

// oneLine collapses whitespace so a caption fits a single table cell
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
