package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/api"
)

var titleCaser = cases.Title(language.English)

// stateLabel renders a machine state for display: "script_ready" becomes
// "Script Ready".
func stateLabel(state string) string {
	if state == "" {
		return ""
	}
	return titleCaser.String(strings.ReplaceAll(state, "_", " "))
}

func formatTimestamp(value string) string {
	if value == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.Local().Format("2006-01-02 15:04")
	}
	return value
}

func itemRow(item api.ContentItem) []string {
	state := stateLabel(item.State)
	if item.UploadInFlight {
		state += " *"
	}
	return []string{
		strconv.FormatInt(item.ID, 10),
		truncate(item.Title, 48),
		state,
		item.RemoteID,
		formatTimestamp(item.UpdatedAt),
	}
}

func parseItemID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", arg)
	}
	return id, nil
}

func truncate(value string, limit int) string {
	if limit <= 3 || len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}
