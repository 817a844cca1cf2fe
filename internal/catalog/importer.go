package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"nutri-planner/internal/llm"
	"nutri-planner/internal/shared"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

// Importer fetches recipe pages from the web and turns them into catalog
// templates. It grows the fallback catalog beyond the embedded seed set; the
// fallback generator itself never calls it.
type Importer struct {
	repo     *Repository
	textGen  llm.TextGenerator
	embedGen llm.EmbeddingGenerator
	client   *http.Client
}

// NewImporter creates a new Importer.
func NewImporter(repo *Repository, textGen llm.TextGenerator, embedGen llm.EmbeddingGenerator) *Importer {
	return &Importer{
		repo:     repo,
		textGen:  textGen,
		embedGen: embedGen,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// ImportURL fetches the URL, extracts a meal template using the LLM, embeds
// it and stores both in the catalog.
func (i *Importer) ImportURL(ctx context.Context, url string) (*Template, shared.CallMeta, error) {
	start := time.Now()

	content, err := i.fetchAndCleanHTML(ctx, url)
	if err != nil {
		return nil, shared.CallMeta{}, fmt.Errorf("failed to fetch content: %w", err)
	}

	prompt := fmt.Sprintf(`
You are a meal extraction expert. Extract one meal template from the following page text.
Estimate per-serving nutrition from the ingredients using standard nutritional knowledge.
Return the result strictly as a JSON object with this structure:
{
  "name": "Meal name",
  "slot": "breakfast|lunch|dinner|snack",
  "tags": ["vegetarian", "gluten_free", ...],
  "ingredients": [{"name": "ingredient", "grams": 100}, ...],
  "nutrition": {"calories": 500, "protein_g": 30, "carbs_g": 55, "fats_g": 15}
}
Return ONLY the raw JSON string. Do not wrap the response in markdown code blocks.

Page text:
%s
`, content)

	resp, err := i.textGen.GenerateContent(ctx, prompt)
	meta := shared.CallMeta{Stage: "CatalogImporter", Usage: resp.Usage, Latency: time.Since(start)}
	if err != nil {
		return nil, meta, fmt.Errorf("ai extraction failed: %w", err)
	}

	var tpl Template
	if err := json.Unmarshal([]byte(resp.Content), &tpl); err != nil {
		return nil, meta, fmt.Errorf("failed to parse AI response: %w. Response: %s", err, resp.Content)
	}
	if tpl.Name == "" || len(tpl.Ingredients) == 0 {
		return nil, meta, fmt.Errorf("extracted template is incomplete: %s", resp.Content)
	}
	tpl.ID = "tpl-" + uuid.NewString()

	if err := i.repo.Save(ctx, tpl); err != nil {
		return nil, meta, err
	}

	embedding, err := i.embedGen.GenerateEmbedding(ctx, tpl.EmbeddingText())
	if err != nil {
		return nil, meta, fmt.Errorf("failed to generate template embedding: %w", err)
	}
	if err := i.repo.SaveEmbedding(ctx, tpl.ID, embedding); err != nil {
		return nil, meta, err
	}

	meta.Latency = time.Since(start)
	return &tpl, meta, nil
}

func (i *Importer) fetchAndCleanHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	return doc.Find("body").Text(), nil
}
