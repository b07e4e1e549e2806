package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"gitlab.com/dirk.krummacker/contactbook/internal/logging"
	"gitlab.com/dirk.krummacker/contactbook/internal/randomgen"
	"gitlab.com/dirk.krummacker/contactbook/pkg/model"
)

// Usage example on the command line:
// > go run ./cmd/client -url=http://localhost:8080 -sizes=100,1000
func main() {
	baseURL := flag.String("url", "http://localhost:8080", "the base URL of the contacts service")
	var sizes sizeList = []int{1000, 5000, 10000}
	flag.Var(&sizes, "sizes", "comma separated numbers of contacts per round")
	flag.Parse()
	logging.Init("development", "info")

	c := &client{baseURL: *baseURL, http: http.DefaultClient}
	fmt.Println()
	fmt.Println("  Elements      POST       PUT       GET    DELETE ")
	fmt.Println("---------------------------------------------------")
	for _, loops := range sizes {
		if err := c.round(os.Stdout, loops); err != nil {
			log.Fatal().Err(err).Int("elements", loops).Msg("load test failed")
		}
	}
}

type client struct {
	baseURL string
	http    *http.Client
}

// round creates loops contacts, then updates, reads and deletes each of them in random order. It
// prints the average latency per method in microseconds.
func (c *client) round(out io.Writer, loops int) error {
	fmt.Fprintf(out, "%10d", loops)
	ids := make([]string, 0, loops)
	var duration time.Duration
	for i := 0; i < loops; i++ {
		id, d, err := c.create(request())
		if err != nil {
			return err
		}
		ids = append(ids, id)
		duration += d
	}
	fmt.Fprintf(out, "%10d", average(duration, loops))

	calls := []func(id string) (time.Duration, error){
		func(id string) (time.Duration, error) {
			return c.send(http.MethodPut, "/contacts/"+id, request(), http.StatusOK, nil)
		},
		func(id string) (time.Duration, error) {
			return c.send(http.MethodGet, "/contacts/"+id, nil, http.StatusOK, nil)
		},
		func(id string) (time.Duration, error) {
			return c.send(http.MethodDelete, "/contacts/"+id, nil, http.StatusOK, nil)
		},
	}
	for _, call := range calls {
		d, err := callInLoop(shuffled(ids), call)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%10d", average(d, loops))
	}
	fmt.Fprintln(out)
	return nil
}

func (c *client) create(body *model.ContactRequest) (string, time.Duration, error) {
	var contact model.Contact
	d, err := c.send(http.MethodPost, "/contacts", body, http.StatusCreated, &contact)
	return contact.Id, d, err
}

// send executes one JSON request and returns how long it took. The response is decoded into
// result unless result is nil.
func (c *client) send(method string, path string, body *model.ContactRequest, want int, result any) (time.Duration, error) {
	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("could not marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	before := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("error making http request: %w", err)
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, fmt.Errorf("could not read response body: %w", err)
	}
	duration := time.Since(before)
	if res.StatusCode != want {
		return duration, fmt.Errorf("%s %s: unexpected status %d: %s", method, path, res.StatusCode, resBody)
	}
	if result != nil {
		if err := json.Unmarshal(resBody, result); err != nil {
			return duration, fmt.Errorf("could not unmarshal JSON: %w", err)
		}
	}
	return duration, nil
}

func callInLoop(ids []string, f func(id string) (time.Duration, error)) (time.Duration, error) {
	var duration time.Duration
	for _, id := range ids {
		d, err := f(id)
		if err != nil {
			return duration, err
		}
		duration += d
	}
	return duration, nil
}

func shuffled(ids []string) []string {
	result := append([]string(nil), ids...)
	rand.Shuffle(len(result), func(i, j int) {
		result[i], result[j] = result[j], result[i]
	})
	return result
}

func average(total time.Duration, loops int) int64 {
	if loops == 0 {
		return 0
	}
	return total.Microseconds() / int64(loops)
}

func request() *model.ContactRequest {
	form := randomgen.Form()
	return &model.ContactRequest{
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		EmailAddress: form.EmailAddress,
		Notes:        form.Notes,
	}
}
