package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/enrichment"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/workflow"
)

const titleWidth = 60

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}

func printBatch(w io.Writer, res *workflow.BatchResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, o := range res.Outcomes {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", o.VideoID, o.Status, o.Reason)
	}
	_ = tw.Flush()

	tally := res.Tally()
	fmt.Fprintf(w, "%s: %d processed, %d skipped, %d failed (run %s)\n",
		res.Operation, res.Count(), tally[workflow.OutcomeSkipped], tally[workflow.OutcomeFailed], res.RunID)
}

func printVideos(w io.Writer, videos []*models.Video) {
	if len(videos) == 0 {
		fmt.Fprintln(w, "no videos")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VIDEO\tSTATUS\tPUBLISHED\tEPISODE\tTITLE")
	for _, v := range videos {
		published := "-"
		if v.PublishedAt != nil {
			published = v.PublishedAt.Format("2006-01-02")
		}
		episode := "-"
		if v.EpisodeID != nil {
			episode = *v.EpisodeID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			v.VideoID, v.Status, published, episode, truncate(v.TitleOriginal, titleWidth))
	}
	_ = tw.Flush()
}

func printVideo(w io.Writer, v *models.Video, s *models.Suggestion) {
	fmt.Fprintf(w, "Video:    %s (%s)\n", v.VideoID, v.Status)
	fmt.Fprintf(w, "Title:    %s\n", v.TitleOriginal)
	fmt.Fprintf(w, "Tags:     %s\n", strings.Join(v.TagsOriginal, ", "))
	if v.EpisodeID != nil {
		fmt.Fprintf(w, "Episode:  %s\n", *v.EpisodeID)
	}

	if s == nil {
		fmt.Fprintln(w, "\nNo suggestions yet.")
		return
	}
	fmt.Fprintln(w)
	printSuggestion(w, s)
}

func printSuggestion(w io.Writer, s *models.Suggestion) {
	fmt.Fprintf(w, "Suggestion #%d [%s] %s\n", s.ID, s.LanguageCode, s.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "  Title:          %s\n", s.Title)
	fmt.Fprintf(w, "  Tags:           %s\n", strings.Join(s.Tags, ", "))
	fmt.Fprintf(w, "  Hashtags:       %s\n", strings.Join(s.Hashtags, " "))
	fmt.Fprintf(w, "  Thumbnail text: %s\n", strings.Join(s.ThumbnailText, " | "))
	fmt.Fprintf(w, "  Pinned comment: %s\n", s.PinnedComment)
	fmt.Fprintf(w, "  Description:\n%s\n", indent(s.Description, "    "))
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func printEpisodes(w io.Writer, hits []*enrichment.EpisodeSummary) {
	if len(hits) == 0 {
		fmt.Fprintln(w, "no matching episodes")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EPISODE\tDATE\tSHOW\tTITLE")
	for _, h := range hits {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", h.EpisodeID, h.Date, h.ShowName, truncate(h.Title, titleWidth))
	}
	_ = tw.Flush()
}

func printStats(w io.Writer, st *workflow.Stats) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	for _, s := range models.AllStatuses {
		fmt.Fprintf(tw, "%s\t%d\t\n", s, st.Counts[s])
	}
	fmt.Fprintf(tw, "total\t%d\t\n", st.Total)
	_ = tw.Flush()
}
