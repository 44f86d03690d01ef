package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"dispensa/internal/ingredient"
)

// ErrFetchFailed marks network or HTTP failures while importing a recipe URL,
// so callers can report "import failed" without persisting anything.
var ErrFetchFailed = errors.New("recipe fetch failed")

// ErrDuplicateSource is returned when a URL was already imported.
var ErrDuplicateSource = errors.New("recipe source already imported")

// Imported is the raw extraction result of one recipe page.
type Imported struct {
	Name        string
	Ingredients []ingredient.Parsed
	Tags        string
}

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Generic cooking words never useful as tags.
var forbiddenTags = map[string]bool{
	"ricetta": true, "ricette": true, "cucina": true, "cucinare": true,
	"piatti": true, "portata": true, "preparazione": true,
}

// maxGraphDepth bounds the recursive JSON-LD walk.
const maxGraphDepth = 8

// Importer fetches a recipe page and extracts its structured recipe data.
type Importer struct {
	client *http.Client
}

// NewImporter creates an Importer with a browser-like HTTP client.
func NewImporter() *Importer {
	return &Importer{client: &http.Client{Timeout: 15 * time.Second}}
}

// Fetch downloads the page at url and extracts its embedded JSON-LD recipe:
// name, raw ingredient lines parsed into (name, quantity, unit) triples, and
// cleaned tags. When no structured data is present it falls back to the page's
// first heading or title with no ingredients.
func (im *Importer) Fetch(ctx context.Context, url string) (Imported, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Imported{}, fmt.Errorf("%w: invalid url: %v", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := im.client.Do(req)
	if err != nil {
		return Imported{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Imported{}, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Imported{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	var recipeNode map[string]interface{}
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var payload interface{}
		if err := json.Unmarshal([]byte(s.Text()), &payload); err != nil {
			return true // malformed block, keep scanning
		}
		if found := findRecipeNode(payload, 0); found != nil {
			recipeNode = found
			return false
		}
		return true
	})

	if recipeNode == nil {
		return Imported{Name: fallbackName(doc), Ingredients: []ingredient.Parsed{}}, nil
	}

	name, _ := recipeNode["name"].(string)
	if name == "" {
		name = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	return Imported{
		Name:        name,
		Ingredients: extractIngredients(recipeNode),
		Tags:        extractTags(recipeNode),
	}, nil
}

// findRecipeNode walks the JSON-LD document looking for the first object whose
// @type is (or contains) "Recipe". It descends into arrays and @graph wrappers
// only, to a bounded depth; first match wins.
func findRecipeNode(v interface{}, depth int) map[string]interface{} {
	if v == nil || depth > maxGraphDepth {
		return nil
	}
	switch node := v.(type) {
	case []interface{}:
		for _, item := range node {
			if found := findRecipeNode(item, depth+1); found != nil {
				return found
			}
		}
	case map[string]interface{}:
		switch t := node["@type"].(type) {
		case string:
			if t == "Recipe" {
				return node
			}
		case []interface{}:
			for _, x := range t {
				if s, ok := x.(string); ok && s == "Recipe" {
					return node
				}
			}
		}
		if graph, ok := node["@graph"].([]interface{}); ok {
			return findRecipeNode(graph, depth+1)
		}
	}
	return nil
}

func extractIngredients(node map[string]interface{}) []ingredient.Parsed {
	raw, ok := node["recipeIngredient"].([]interface{})
	if !ok {
		raw, _ = node["ingredients"].([]interface{})
	}

	parsed := make([]ingredient.Parsed, 0, len(raw))
	for _, item := range raw {
		parsed = append(parsed, ingredient.ParseLine(fmt.Sprintf("%v", item)))
	}
	return parsed
}

// extractTags merges recipeCategory and comma-split keywords into a lowercase,
// deduplicated, comma-joined tag string. Tags outside [3,19] characters or on
// the stoplist are dropped.
func extractTags(node map[string]interface{}) string {
	var tags []string
	switch cat := node["recipeCategory"].(type) {
	case string:
		tags = append(tags, cat)
	case []interface{}:
		for _, c := range cat {
			if s, ok := c.(string); ok {
				tags = append(tags, s)
			}
		}
	}
	if kw, ok := node["keywords"].(string); ok {
		tags = append(tags, strings.Split(kw, ",")...)
	}

	seen := make(map[string]bool)
	var clean []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		n := utf8.RuneCountInString(t)
		if n <= 2 || n >= 20 || forbiddenTags[t] || seen[t] {
			continue
		}
		seen[t] = true
		clean = append(clean, t)
	}
	return strings.Join(clean, ",")
}

func fallbackName(doc *goquery.Document) string {
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return strings.TrimSpace(doc.Find("title").Text())
}
