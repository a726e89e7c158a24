// Command report_gen turns `go test -json` output into a test report.
//
// It scans the repository's _test.go files for the annotation headers the
// test suites carry (TestPurpose, Scope, Security, Expected, Test Case ID),
// joins them with the run results, and writes a JSON and a Markdown report:
//
//	go test -json ./... > /tmp/tests.json
//	go run scripts/testing/report_gen.go -input /tmp/tests.json \
//	    -out-json report.json -out-md report.md
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const modulePath = "github.com/registra/registra"

type annotation struct {
	Name       string `json:"name"`
	Purpose    string `json:"purpose,omitempty"`
	Scope      string `json:"scope,omitempty"`
	Security   string `json:"security,omitempty"`
	Expected   string `json:"expected,omitempty"`
	TestCaseID string `json:"test_case_id,omitempty"`
	Package    string `json:"package"`
	Category   string `json:"category"`
}

type testEvent struct {
	Action  string  `json:"Action"`
	Package string  `json:"Package"`
	Test    string  `json:"Test"`
	Elapsed float64 `json:"Elapsed"`
	Output  string  `json:"Output"`
}

type result struct {
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Elapsed     float64    `json:"elapsed_seconds"`
	Package     string     `json:"package"`
	Failure     string     `json:"failure_reason,omitempty"`
	Annotations annotation `json:"annotations"`
}

type report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Total       int       `json:"total"`
	Passed      int       `json:"passed"`
	Failed      int       `json:"failed"`
	Skipped     int       `json:"skipped"`
	Results     []result  `json:"results"`
}

func main() {
	inputPath := flag.String("input", "", "path to `go test -json` output")
	outJSON := flag.String("out-json", "report.json", "path for the JSON report")
	outMD := flag.String("out-md", "report.md", "path for the Markdown report")
	title := flag.String("title", "Registra Test Report", "report title")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: report_gen -input <go-test-json> [-out-json f] [-out-md f]")
		os.Exit(1)
	}

	annotations := scanAnnotations()
	results := mergeResults(*inputPath, annotations)
	rep := summarize(results)

	if err := writeJSON(rep, *outJSON); err != nil {
		fmt.Fprintf(os.Stderr, "write json: %v\n", err)
		os.Exit(1)
	}
	if err := writeMarkdown(rep, *outMD, *title); err != nil {
		fmt.Fprintf(os.Stderr, "write markdown: %v\n", err)
		os.Exit(1)
	}

	// Non-zero exit keeps CI gates honest.
	if rep.Failed > 0 {
		fmt.Fprintf(os.Stderr, "%d tests failed\n", rep.Failed)
		os.Exit(1)
	}
}

// scanAnnotations walks the tree and parses the doc comments of every Test
// function in _test.go files.
func scanAnnotations() map[string]annotation {
	out := make(map[string]annotation)
	fset := token.NewFileSet()

	filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, "_test.go") {
			return nil
		}
		if strings.Contains(path, "vendor/") || strings.HasPrefix(path, "_") {
			return nil
		}

		node, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			return nil
		}

		pkg := packagePath(path)
		for _, decl := range node.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || !strings.HasPrefix(fn.Name.Name, "Test") || fn.Doc == nil {
				continue
			}

			a := annotation{
				Name:     fn.Name.Name,
				Package:  pkg,
				Category: category(pkg),
			}
			for _, line := range fn.Doc.List {
				text := strings.TrimSpace(strings.TrimPrefix(line.Text, "//"))
				for prefix, dst := range map[string]*string{
					"TestPurpose:":  &a.Purpose,
					"Scope:":        &a.Scope,
					"Security:":     &a.Security,
					"Expected:":     &a.Expected,
					"Test Case ID:": &a.TestCaseID,
				} {
					if strings.HasPrefix(text, prefix) {
						*dst = strings.TrimSpace(strings.TrimPrefix(text, prefix))
					}
				}
			}
			out[pkg+"."+fn.Name.Name] = a
		}
		return nil
	})

	return out
}

func packagePath(filePath string) string {
	dir := filepath.ToSlash(filepath.Dir(filePath))
	dir = strings.TrimPrefix(dir, "./")
	if dir == "." {
		return modulePath
	}
	return modulePath + "/" + dir
}

func category(pkg string) string {
	switch {
	case strings.Contains(pkg, "identity"):
		return "AuthN"
	case strings.Contains(pkg, "token"):
		return "Token"
	case strings.Contains(pkg, "session"):
		return "Session"
	case strings.Contains(pkg, "tenant"):
		return "Tenant"
	case strings.Contains(pkg, "customer"), strings.Contains(pkg, "entity"):
		return "Records"
	case strings.Contains(pkg, "audit"):
		return "Audit"
	case strings.Contains(pkg, "transport/http"):
		return "API"
	case strings.Contains(pkg, "store"):
		return "Store"
	case strings.Contains(pkg, "tests/system"):
		return "System"
	}
	return "Other"
}

// mergeResults replays the go test -json stream over the scanned annotations.
// Subtests inherit their parent's annotation.
func mergeResults(path string, annotations map[string]annotation) []result {
	states := make(map[string]*result)

	file, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open test output: %v\n", err)
		return nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		var ev testEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil || ev.Test == "" {
			continue
		}

		key := ev.Package + "." + ev.Test
		res, ok := states[key]
		if !ok {
			a, found := annotations[key]
			if !found {
				parent := strings.SplitN(ev.Test, "/", 2)[0]
				if pa, pok := annotations[ev.Package+"."+parent]; pok {
					a = pa
					a.Name = ev.Test
				} else {
					a = annotation{Name: ev.Test, Package: ev.Package, Category: category(ev.Package)}
				}
			}
			res = &result{Name: ev.Test, Package: ev.Package, Annotations: a}
			states[key] = res
		}

		switch ev.Action {
		case "pass", "fail":
			res.Status = ev.Action
			res.Elapsed = ev.Elapsed
		case "skip":
			res.Status = "skip"
		case "output":
			if res.Status == "" || res.Status == "fail" {
				res.Failure += ev.Output
			}
		}
	}

	list := make([]result, 0, len(states))
	for _, r := range states {
		if r.Status != "fail" {
			r.Failure = ""
		}
		list = append(list, *r)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Package != list[j].Package {
			return list[i].Package < list[j].Package
		}
		return list[i].Name < list[j].Name
	})
	return list
}

func summarize(results []result) report {
	rep := report{GeneratedAt: time.Now().UTC(), Results: results}
	for _, r := range results {
		rep.Total++
		switch r.Status {
		case "pass":
			rep.Passed++
		case "fail":
			rep.Failed++
		case "skip":
			rep.Skipped++
		}
	}
	return rep
}

func writeJSON(rep report, path string) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeMarkdown(rep report, path, title string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Generated: %s\n\n", rep.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "**Total:** %d | **Passed:** %d | **Failed:** %d | **Skipped:** %d\n\n",
		rep.Total, rep.Passed, rep.Failed, rep.Skipped)

	byCategory := make(map[string][]result)
	for _, r := range rep.Results {
		byCategory[r.Annotations.Category] = append(byCategory[r.Annotations.Category], r)
	}
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, c := range categories {
		fmt.Fprintf(&b, "## %s\n\n", c)
		b.WriteString("| Test Case | Status | Test | Purpose |\n")
		b.WriteString("|-----------|--------|------|--------|\n")
		for _, r := range byCategory[c] {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				orDash(r.Annotations.TestCaseID), statusMark(r.Status), r.Name, orDash(r.Annotations.Purpose))
		}
		b.WriteString("\n")
	}

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", "\\|")
}

func statusMark(status string) string {
	switch status {
	case "pass":
		return "✅ pass"
	case "fail":
		return "❌ fail"
	case "skip":
		return "⏭ skip"
	}
	return "– not run"
}
