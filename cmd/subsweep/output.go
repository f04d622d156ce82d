package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"subsweep/internal/model"
	"subsweep/internal/util"
)

func writeRecords(w io.Writer, recs []model.ConsolidatedRecord, format string) error {
	if recs == nil {
		recs = []model.ConsolidatedRecord{}
	}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(recs); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSENDER\tCATEGORY\tEMAILS\tLINK\tSUBJECT")
		for _, r := range recs {
			link := "-"
			if r.UnsubscribeLink != "" {
				link = "yes"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
				r.ID, util.DisplayName(r.From, r.SenderKey), r.Category, len(r.RelatedEmails), link, r.Subject)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
	}
}
