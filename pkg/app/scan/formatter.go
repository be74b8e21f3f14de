package scan

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// FormatOutput formats scan results according to output format
func FormatOutput(w io.Writer, response *Response, format string) error {
	return formatAs(w, response, format, func() error { return formatTable(w, response) })
}

// FormatResolveOutput formats resolved containers according to output format
func FormatResolveOutput(w io.Writer, response *ResolveResponse, format string) error {
	return formatAs(w, response, format, func() error { return formatResolveTable(w, response) })
}

// FormatClassesOutput formats a container listing according to output format
func FormatClassesOutput(w io.Writer, response *ClassesResponse, format string) error {
	return formatAs(w, response, format, func() error { return formatClassesTable(w, response) })
}

func formatAs(w io.Writer, v any, format string, table func() error) error {
	switch format {
	case "json":
		return formatJSON(w, v)
	case "yaml":
		return formatYAML(w, v)
	case "table", "":
		return table()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// formatTable formats results as a table
func formatTable(out io.Writer, response *Response) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	if response.TotalClasses == 0 {
		fmt.Fprintln(w, "No classes found in the requested namespaces.")
	} else {
		fmt.Fprintf(w, "NAMESPACE\tCLASS\n")
		fmt.Fprintf(w, "---------\t-----\n")
		for _, ns := range response.Namespaces {
			for _, class := range ns.Classes {
				fmt.Fprintf(w, "%s\t%s\n", ns.Namespace, class)
			}
		}
	}

	if len(response.Loaders) > 0 {
		fmt.Fprintf(w, "\nLOADER\n------\n")
		for _, l := range response.Loaders {
			fmt.Fprintf(w, "%s\n", l)
		}
	}

	fmt.Fprintf(w, "\nCONTAINER\tCLASSES\tMATCHED\tSTATUS\n")
	fmt.Fprintf(w, "---------\t-------\t-------\t------\n")
	for _, c := range response.Containers {
		status := "ok"
		if c.Failed() {
			status = "failed: " + c.Error
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", c.Path, c.Classes, c.Matched, status)
	}

	if err := w.Flush(); err != nil {
		return err
	}

	// Summary
	fmt.Fprintf(out, "\nFound %d classes across %d namespaces in %d containers", response.TotalClasses, len(response.Namespaces), len(response.Containers))
	if failed := response.FailedContainers(); failed > 0 {
		fmt.Fprintf(out, " (%d unreadable)", failed)
	}
	fmt.Fprintf(out, " in %v\n", response.Duration)
	return nil
}

func formatResolveTable(out io.Writer, response *ResolveResponse) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "#\tCONTAINER\n")
	fmt.Fprintf(w, "-\t---------\n")
	for i, c := range response.Containers {
		fmt.Fprintf(w, "%d\t%s\n", i+1, c)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	loading := "extracted secondary containers"
	if response.Native {
		loading = "native"
	}
	fmt.Fprintf(out, "\n%s: %d containers (%s)\n", response.Identity, len(response.Containers), loading)
	return nil
}

func formatClassesTable(out io.Writer, response *ClassesResponse) error {
	for _, c := range response.Classes {
		fmt.Fprintln(out, c)
	}
	fmt.Fprintf(out, "\n%s: %d of %d classes (%s, %d dex)\n",
		response.Path, len(response.Classes), response.Total, response.Loader, response.DexCount)
	return nil
}

// formatJSON formats results as JSON
func formatJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// formatYAML formats results as YAML
func formatYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(v)
}

// FormatSummary provides a brief summary for verbose output
func FormatSummary(response *Response) string {
	if response.TotalClasses == 0 {
		return "No classes found"
	}

	summary := fmt.Sprintf("Found %d class", response.TotalClasses)
	if response.TotalClasses != 1 {
		summary += "es"
	}
	summary += fmt.Sprintf(" in %d container", len(response.Containers))
	if len(response.Containers) != 1 {
		summary += "s"
	}
	if failed := response.FailedContainers(); failed > 0 {
		summary += fmt.Sprintf(", %d unreadable", failed)
	}
	return summary
}
