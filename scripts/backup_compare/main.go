// Command backup_compare diffs two semester collection documents, such as a
// file exported by the browser client and the output of GET /export, and
// exits non-zero when they disagree.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/timetable-builder/internal/models"
	"github.com/noah-isme/timetable-builder/internal/repository"
)

type semesterDiff struct {
	ID     string
	Name   string
	Reason string
}

type report struct {
	Left, Right int
	Diffs       []semesterDiff
}

func main() {
	var (
		leftSrc  string
		rightSrc string
		timeout  time.Duration
	)

	flag.StringVar(&leftSrc, "left", "", "Backup file path or URL")
	flag.StringVar(&rightSrc, "right", "http://localhost:8080/api/v1/export", "Backup file path or URL")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	if leftSrc == "" {
		log.Fatal("-left is required")
	}

	client := &http.Client{Timeout: timeout}
	left, err := readDocument(client, leftSrc)
	if err != nil {
		log.Fatalf("read %s: %v", leftSrc, err)
	}
	right, err := readDocument(client, rightSrc)
	if err != nil {
		log.Fatalf("read %s: %v", rightSrc, err)
	}

	rep, err := compareDocuments(left, right)
	if err != nil {
		log.Fatalf("compare: %v", err)
	}
	printReport(rep)
	if len(rep.Diffs) > 0 {
		os.Exit(1)
	}
}

func readDocument(client *http.Client, src string) ([]byte, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return os.ReadFile(src)
	}
	resp, err := client.Get(src)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// compareDocuments matches semesters by id and reports every semester that
// is missing on one side or whose content differs.
func compareDocuments(left, right []byte) (report, error) {
	l, err := repository.DecodeSemesters(left)
	if err != nil {
		return report{}, fmt.Errorf("left: %w", err)
	}
	r, err := repository.DecodeSemesters(right)
	if err != nil {
		return report{}, fmt.Errorf("right: %w", err)
	}

	rep := report{Left: len(l), Right: len(r)}
	rightByID := make(map[string]models.Semester, len(r))
	for _, sem := range r {
		rightByID[sem.ID] = sem
	}
	for _, sem := range l {
		other, ok := rightByID[sem.ID]
		if !ok {
			rep.Diffs = append(rep.Diffs, semesterDiff{ID: sem.ID, Name: sem.Name, Reason: "missing on right"})
			continue
		}
		delete(rightByID, sem.ID)
		if reason := semesterMismatch(sem, other); reason != "" {
			rep.Diffs = append(rep.Diffs, semesterDiff{ID: sem.ID, Name: sem.Name, Reason: reason})
		}
	}
	for id, sem := range rightByID {
		rep.Diffs = append(rep.Diffs, semesterDiff{ID: id, Name: sem.Name, Reason: "missing on left"})
	}
	sort.Slice(rep.Diffs, func(i, j int) bool { return rep.Diffs[i].ID < rep.Diffs[j].ID })
	return rep, nil
}

func semesterMismatch(a, b models.Semester) string {
	switch {
	case a.Name != b.Name:
		return "name differs"
	case len(a.Courses) != len(b.Courses):
		return fmt.Sprintf("course count %d vs %d", len(a.Courses), len(b.Courses))
	case len(a.Timetables) != len(b.Timetables):
		return fmt.Sprintf("timetable count %d vs %d", len(a.Timetables), len(b.Timetables))
	}
	if !jsonEqual(a, b) {
		return "content differs"
	}
	return ""
}

func jsonEqual(a, b interface{}) bool {
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	var av, bv interface{}
	if json.Unmarshal(aj, &av) != nil || json.Unmarshal(bj, &bv) != nil {
		return false
	}
	return reflect.DeepEqual(av, bv)
}

func printReport(rep report) {
	fmt.Printf("Semesters: left=%d right=%d\n", rep.Left, rep.Right)
	if len(rep.Diffs) == 0 {
		fmt.Println("Documents match")
		return
	}
	fmt.Printf("%-38s %-24s %s\n", "ID", "NAME", "REASON")
	for _, d := range rep.Diffs {
		fmt.Printf("%-38s %-24s %s\n", d.ID, d.Name, d.Reason)
	}
}
