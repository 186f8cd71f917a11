package process_test

import (
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"
)

// Invoked by `go test`, switches between running the tests and acting as a
// helper process based on env.
func TestMain(m *testing.M) {
	switch os.Getenv("TEST_MAIN") {
	case "output":
		fmt.Fprintf(os.Stdout, "llamas1\n")  //nolint:errcheck // test helper process output
		fmt.Fprintf(os.Stderr, "alpacas1\n") //nolint:errcheck // test helper process output
		fmt.Fprintf(os.Stdout, "llamas2\n")  //nolint:errcheck // test helper process output
		fmt.Fprintf(os.Stderr, "alpacas2\n") //nolint:errcheck // test helper process output
		os.Exit(0)

	case "exiter":
		code, err := strconv.Atoi(os.Getenv("TEST_MAIN_EXIT"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad TEST_MAIN_EXIT: %v\n", err) //nolint:errcheck // test helper process output
			os.Exit(255)
		}
		os.Exit(code)

	// doesn't handle signals, so that we can detect the process was signaled
	case "sleeper":
		fmt.Println("Ready")
		time.Sleep(10 * time.Second)
		os.Exit(0)

	default:
		os.Exit(m.Run())
	}
}
