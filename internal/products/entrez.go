package products

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultEntrezURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// EntrezFetcher resolves gene symbols through the NCBI Entrez gene database:
// an esearch for the symbol followed by an esummary for the description.
// NCBI asks clients to identify themselves, so an email address is required.
type EntrezFetcher struct {
	baseURL string
	email   string
	client  *http.Client
}

// NewEntrezFetcher creates a fetcher identifying itself with email.
func NewEntrezFetcher(email string) *EntrezFetcher {
	return &EntrezFetcher{
		baseURL: defaultEntrezURL,
		email:   email,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetBaseURL points the fetcher at a different eutils endpoint. Tests use
// this to run against a local server.
func (f *EntrezFetcher) SetBaseURL(u string) {
	f.baseURL = u
}

// Fetch returns the Entrez gene description for a symbol.
func (f *EntrezFetcher) Fetch(symbol string) (string, error) {
	id, err := f.search(symbol)
	if err != nil {
		return "", err
	}
	return f.summary(symbol, id)
}

func (f *EntrezFetcher) search(symbol string) (string, error) {
	params := url.Values{
		"db":      {"gene"},
		"term":    {symbol + "[sym]"},
		"retmode": {"json"},
	}
	var result struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := f.getJSON("esearch.fcgi", params, &result); err != nil {
		return "", err
	}
	if len(result.ESearchResult.IDList) == 0 {
		return "", fmt.Errorf("no Entrez gene matches symbol %q", symbol)
	}
	return result.ESearchResult.IDList[0], nil
}

func (f *EntrezFetcher) summary(symbol, id string) (string, error) {
	params := url.Values{
		"db":      {"gene"},
		"id":      {id},
		"retmode": {"json"},
	}
	var result struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := f.getJSON("esummary.fcgi", params, &result); err != nil {
		return "", err
	}

	raw, ok := result.Result[id]
	if !ok {
		return "", fmt.Errorf("Entrez summary for %q is missing gene %s", symbol, id)
	}
	var doc struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("decode Entrez summary: %w", err)
	}
	if doc.Description == "" {
		return "", fmt.Errorf("Entrez gene %s has no description", id)
	}
	return doc.Description, nil
}

func (f *EntrezFetcher) getJSON(endpoint string, params url.Values, out any) error {
	params.Set("tool", "annonex2embl")
	if f.email != "" {
		params.Set("email", f.email)
	}

	resp, err := f.client.Get(f.baseURL + "/" + endpoint + "?" + params.Encode())
	if err != nil {
		return fmt.Errorf("Entrez request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("Entrez error %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode Entrez response: %w", err)
	}
	return nil
}
