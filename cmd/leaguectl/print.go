package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/trentd187/club-league/internal/standings"
)

func printStandings(out io.Writer, rows []standings.Row) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "#\tTEAM\tP\tW\tD\tL\tGF\tGA\tGD\tPTS\tFORM\t")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%+d\t%d\t%s\t\n",
			r.Rank, r.Name, r.Played, r.Won, r.Drawn, r.Lost,
			r.GoalsFor, r.GoalsAgainst, r.GoalDifference, r.Points, strings.Join(r.Form, ""))
	}
	return w.Flush()
}
