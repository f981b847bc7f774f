package workload

import (
	"strings"
	"testing"
	"time"
)

func TestStatus_String(t *testing.T) {
	testCases := []struct {
		status   Status
		expected string
	}{
		{StatusPending, "pending"},
		{StatusRunning, "running"},
		{StatusSucceeded, "succeeded"},
		{StatusFailed, "failed"},
		{StatusSkipped, "skipped"},
		{Status(99), "unknown"},
	}

	for _, tc := range testCases {
		if got := tc.status.String(); got != tc.expected {
			t.Errorf("Status(%d).String() = %q, want %q", tc.status, got, tc.expected)
		}
	}
}

func TestParseDecl(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    Decl
		wantErr bool
	}{
		{"plain", "explore", Decl{Name: "explore"}, false},
		{"with prereq", "exploreAndUpdate:explore", Decl{Name: "exploreAndUpdate", Requires: "explore"}, false},
		{"whitespace", " explore : other ", Decl{Name: "explore", Requires: "other"}, false},
		{"empty", "", Decl{}, true},
		{"empty prereq", "explore:", Decl{}, true},
		{"only colon", ":", Decl{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDecl(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseDecl(%q) expected error, got %+v", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecl(%q) error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("ParseDecl(%q) = %+v, want %+v", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseList(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    int
		wantErr string
	}{
		{"single", "explore", 1, ""},
		{"chain", "explore,exploreAndUpdate:explore,businessIntelligence:exploreAndUpdate", 3, ""},
		{"trailing comma", "explore,", 1, ""},
		{"duplicate", "explore,explore", 0, "duplicate"},
		{"forward reference", "exploreAndUpdate:explore,explore", 0, "not declared before"},
		{"unknown prereq", "explore:missing", 0, "not declared before"},
		{"empty", "", 0, "no workloads"},
		{"only commas", ",,", 0, "no workloads"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			decls, err := ParseList(tc.input)
			if tc.wantErr != "" {
				if err == nil {
					t.Fatalf("ParseList(%q) expected error", tc.input)
				}
				if !strings.Contains(err.Error(), tc.wantErr) {
					t.Errorf("ParseList(%q) error = %q, want substring %q", tc.input, err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseList(%q) error: %v", tc.input, err)
			}
			if len(decls) != tc.want {
				t.Errorf("ParseList(%q) returned %d decls, want %d", tc.input, len(decls), tc.want)
			}
		})
	}
}

func TestParseList_Order(t *testing.T) {
	decls, err := ParseList("explore, exploreAndUpdate:explore")
	if err != nil {
		t.Fatalf("ParseList error: %v", err)
	}
	if decls[0].Name != "explore" || decls[1].Name != "exploreAndUpdate" {
		t.Errorf("declaration order not preserved: %+v", decls)
	}
	if decls[1].Requires != "explore" {
		t.Errorf("Requires = %q, want %q", decls[1].Requires, "explore")
	}
}

func TestWorkload_IsUpdate(t *testing.T) {
	w := Workload{Name: "explore"}
	if w.IsUpdate() {
		t.Error("workload without update endpoint reported as update")
	}
	w.UpdateEndpoint = "http://localhost:3030/bsbm/update"
	if !w.IsUpdate() {
		t.Error("workload with update endpoint not reported as update")
	}
}

func TestWorkload_Spec(t *testing.T) {
	w := Workload{
		Name:          "explore",
		UsecaseFile:   "/tools/usecases/explore/sparql.txt",
		QueryEndpoint: "http://localhost:3030/bsbm/query",
		DataDir:       "/ws/td_data",
		OutputPath:    "/out/bsbm.explore.jena.1000.4.xml",
	}

	spec := w.Spec("/tools/testdriver", 4, 0, 0)

	if spec.Path != "/tools/testdriver" {
		t.Errorf("Path = %q", spec.Path)
	}
	if spec.Name != "testdriver explore" {
		t.Errorf("Name = %q", spec.Name)
	}

	args := strings.Join(spec.Args, " ")
	for _, want := range []string{
		"-mt 4",
		"-ucf /tools/usecases/explore/sparql.txt",
		"-idir /ws/td_data",
		"-o /out/bsbm.explore.jena.1000.4.xml",
	} {
		if !strings.Contains(args, want) {
			t.Errorf("args missing %q: %s", want, args)
		}
	}
	for _, reject := range []string{"-u ", "-udataset", "-seed"} {
		if strings.Contains(args, reject) {
			t.Errorf("args unexpectedly contain %q: %s", reject, args)
		}
	}

	// The endpoint is positional and must come last.
	if spec.Args[len(spec.Args)-1] != "http://localhost:3030/bsbm/query" {
		t.Errorf("endpoint not last: %v", spec.Args)
	}
}

func TestWorkload_Spec_Update(t *testing.T) {
	w := Workload{
		Name:           "exploreAndUpdate",
		UsecaseFile:    "/tools/usecases/exploreAndUpdate/sparql.txt",
		QueryEndpoint:  "http://localhost:3030/bsbm/query",
		UpdateEndpoint: "http://localhost:3030/bsbm/update",
		UpdateDataset:  "/ws/explore-update-1000.nt",
		OutputPath:     "/out/result.xml",
	}

	spec := w.Spec("/tools/testdriver", 1, 42, 5*time.Minute)

	args := strings.Join(spec.Args, " ")
	for _, want := range []string{
		"-u http://localhost:3030/bsbm/update",
		"-udataset /ws/explore-update-1000.nt",
		"-seed 42",
	} {
		if !strings.Contains(args, want) {
			t.Errorf("args missing %q: %s", want, args)
		}
	}
	if spec.Timeout != 5*time.Minute {
		t.Errorf("Timeout = %v", spec.Timeout)
	}
}

func TestArtifactName(t *testing.T) {
	testCases := []struct {
		workload    string
		store       string
		size        int
		parallelism int
		expected    string
	}{
		{"explore", "jena", 1000, 4, "bsbm.explore.jena.1000.4.xml"},
		{"businessIntelligence", "virtuoso", 100000, 1, "bsbm.businessIntelligence.virtuoso.100000.1.xml"},
	}

	for _, tc := range testCases {
		got := ArtifactName(tc.workload, tc.store, tc.size, tc.parallelism)
		if got != tc.expected {
			t.Errorf("ArtifactName = %q, want %q", got, tc.expected)
		}
	}
}
