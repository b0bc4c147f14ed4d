package serpapi

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/klubi/clerk/pkg/apis/v1alpha1"
)

// ErrNoResults is returned by Decode when a payload holds none of the known
// result lists.
var ErrNoResults = errors.New("no search results in response")

// Response holds the result lists clerk uses from a SerpAPI payload.
type Response struct {
	Organic []v1alpha1.OrganicResult
	News    []v1alpha1.NewsResult
	Images  []v1alpha1.ImageResult
}

type rawResponse struct {
	Organic []rawHit `mapstructure:"organic_results"`
	News    []rawHit `mapstructure:"news_results"`
	Images  []rawHit `mapstructure:"images_results"`
}

type rawHit struct {
	Position  int    `mapstructure:"position"`
	Title     string `mapstructure:"title"`
	Link      string `mapstructure:"link"`
	Snippet   string `mapstructure:"snippet"`
	Source    any    `mapstructure:"source"`
	Date      string `mapstructure:"date"`
	Original  string `mapstructure:"original"`
	Thumbnail string `mapstructure:"thumbnail"`
}

// nestingKeys are the wrapper keys tool providers put around a SerpAPI body.
var nestingKeys = []string{"data", "results", "response_data"}

// Decode extracts the result lists from a SerpAPI body, unwrapping the
// envelopes tool providers add around it.
func Decode(raw map[string]any) (*Response, error) {
	body := unwrap(raw, 0)
	if body == nil {
		return nil, ErrNoResults
	}

	var r rawResponse
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &r,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(body); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}

	out := &Response{}
	for _, h := range r.Organic {
		out.Organic = append(out.Organic, v1alpha1.OrganicResult{
			Position: h.Position, Title: h.Title, Link: h.Link, Snippet: h.Snippet,
		})
	}
	for _, h := range r.News {
		out.News = append(out.News, v1alpha1.NewsResult{
			Title: h.Title, Link: h.Link, Snippet: h.Snippet, Source: sourceName(h.Source), Date: h.Date,
		})
	}
	for _, h := range r.Images {
		out.Images = append(out.Images, v1alpha1.ImageResult{
			Title: h.Title, Link: h.Link, Original: h.Original, Thumbnail: h.Thumbnail, Source: sourceName(h.Source),
		})
	}
	return out, nil
}

func unwrap(m map[string]any, depth int) map[string]any {
	if m == nil || depth > 3 {
		return nil
	}
	for _, k := range []string{"organic_results", "news_results", "images_results"} {
		if _, ok := m[k]; ok {
			return m
		}
	}
	for _, k := range nestingKeys {
		if inner, ok := m[k].(map[string]any); ok {
			if found := unwrap(inner, depth+1); found != nil {
				return found
			}
		}
	}
	return nil
}

// sourceName accepts both the plain string and the {"name": ...} object forms
// SerpAPI uses for result sources.
func sourceName(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case map[string]any:
		if name, ok := s["name"].(string); ok {
			return name
		}
	}
	return ""
}
