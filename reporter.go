package gocha

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html/template"
	"os"
	"strings"
)

// WriteReportJSON writes a RunSummary to a JSON file.
func WriteReportJSON(path string, sum RunSummary) error {
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// JUnit reporter for CI compatibility: one testsuite per spec file, testcases
// from the recorded case list. Pending tests map to skipped; a file-level
// abort counts as a suite error.
type junitTestsuites struct {
	XMLName  xml.Name         `xml:"testsuites"`
	Tests    int              `xml:"tests,attr"`
	Failures int              `xml:"failures,attr"`
	Skipped  int              `xml:"skipped,attr"`
	Time     string           `xml:"time,attr"`
	Suites   []junitTestsuite `xml:"testsuite"`
}

type junitTestsuite struct {
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Skipped  int             `xml:"skipped,attr"`
	Errors   int             `xml:"errors,attr"`
	Time     string          `xml:"time,attr"`
	Cases    []junitTestcase `xml:"testcase"`
}

type junitTestcase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	Skipped   *junitSkipped `xml:"skipped,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

type junitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// WriteReportJUnit writes a RunSummary to JUnit XML for CI consumers.
func WriteReportJUnit(path string, sum RunSummary) error {
	root := junitTestsuites{
		Tests:    sum.Total,
		Failures: sum.Failed,
		Skipped:  sum.Pending,
		Time:     fmt.Sprintf("%.3f", sum.TotalElapsed.Seconds()),
	}
	for _, fr := range sum.Files {
		ts := junitTestsuite{
			Name:     fr.Name,
			Tests:    fr.Total,
			Failures: fr.Failed,
			Skipped:  fr.Pending,
			Time:     fmt.Sprintf("%.3f", fr.Duration.Seconds()),
		}
		if fr.ErrorText != "" {
			ts.Errors = 1
		}
		for _, run := range fr.Runs {
			for _, c := range run.Cases {
				tc := junitTestcase{
					Name:      caseName(c),
					Classname: fr.FilePath,
				}
				switch c.Outcome {
				case OutcomePending:
					tc.Skipped = &junitSkipped{}
				case OutcomeFailed:
					msg := c.Message
					if len(c.Lines) > 0 {
						msg = fmt.Sprintf("%s on line(s) %v", msg, c.Lines)
					}
					tc.Failure = &junitFailure{
						Message: msg,
						Type:    "assertion",
						Body:    msg,
					}
				}
				ts.Cases = append(ts.Cases, tc)
			}
		}
		root.Suites = append(root.Suites, ts)
	}
	data, err := xml.MarshalIndent(root, "", "  ")
	if err != nil {
		return err
	}
	data = append([]byte(xml.Header), data...)
	return os.WriteFile(path, data, 0o644)
}

func caseName(c CaseRecord) string {
	if len(c.Path) == 0 {
		return c.Title
	}
	return strings.Join(c.Path, " ") + " " + c.Title
}

// HTML report: one table row per spec file with overall counts on top.
var htmlTemplate = template.Must(template.New("report").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <title>gch report</title>
  <style>
    body { font-family: Arial, sans-serif; margin: 16px; background: #fafafa; }
    h1 { margin-bottom: 8px; }
    .summary { margin-bottom: 16px; }
    table { width: 100%; border-collapse: collapse; background: #fff; }
    th, td { padding: 8px 10px; border: 1px solid #e0e0e0; font-size: 14px; }
    th { background: #f5f5f5; text-align: left; }
    .status-pass { color: #2e7d32; font-weight: 600; }
    .status-fail { color: #c62828; font-weight: 600; }
    .status-skip { color: #9e9e9e; font-weight: 600; }
    .mono { font-family: "SFMono-Regular", Consolas, "Liberation Mono", Menlo, monospace; font-size: 12px; }
  </style>
</head>
<body>
  <h1>gch report</h1>
  <div class="summary">
    <div>Total: {{.Total}} &nbsp; Succeeded: {{.Succeeded}} &nbsp; Failed: {{.Failed}} &nbsp; Pending: {{.Pending}} &nbsp; Time: {{.TotalElapsed}}</div>
  </div>
  <table>
    <thead>
      <tr>
        <th>#</th>
        <th>Spec</th>
        <th>File</th>
        <th>Status</th>
        <th>Tests</th>
        <th>Duration</th>
        <th>Error</th>
      </tr>
    </thead>
    <tbody>
      {{range $idx, $f := .Files}}
      <tr>
        <td>{{$idx}}</td>
        <td>{{$f.Name}}</td>
        <td class="mono">{{$f.FilePath}}</td>
        <td>
          {{if $f.Skipped}}<span class="status-skip">skipped</span>{{else if $f.Passed}}<span class="status-pass">passed</span>{{else}}<span class="status-fail">failed</span>{{end}}
        </td>
        <td>{{$f.Total}}</td>
        <td>{{$f.Duration}}</td>
        <td>{{if $f.ErrorText}}<span class="mono">{{$f.ErrorText}}</span>{{end}}</td>
      </tr>
      {{end}}
    </tbody>
  </table>
</body>
</html>`))

// WriteReportHTML renders a simple HTML table summary.
func WriteReportHTML(path string, sum RunSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return htmlTemplate.Execute(f, sum)
}

// WriteReport picks the reporter function by format.
func WriteReport(format, path string, sum RunSummary) error {
	switch strings.ToLower(format) {
	case "json", "":
		return WriteReportJSON(path, sum)
	case "junit":
		return WriteReportJUnit(path, sum)
	case "html":
		return WriteReportHTML(path, sum)
	default:
		return fmt.Errorf("unknown format %s", format)
	}
}
