package artifacts

import (
	"encoding/json"
	"sort"
	"strings"

	"git.home.luguber.info/inful/specsync/internal/extract"
	"git.home.luguber.info/inful/specsync/internal/reconcile"
)

// Categorizer maps a documented method to its functional category. The
// pipeline builds one from the configured category-to-path-prefix table.
type Categorizer func(def *extract.MethodDefinition) string

// Collection is a self-contained client-import collection for one version:
// folders per functional category, one request item per method with its
// captured example payloads.
type Collection struct {
	Info    CollectionInfo `json:"info"`
	Folders []Folder       `json:"item"`
}

// CollectionInfo identifies the collection to importing clients.
type CollectionInfo struct {
	Name   string `json:"name"`
	Schema string `json:"schema"`
}

// Folder groups the request items of one functional category.
type Folder struct {
	Name  string        `json:"name"`
	Items []RequestItem `json:"item"`
}

// RequestItem is one importable request with example responses.
type RequestItem struct {
	Name      string            `json:"name"`
	Request   RequestSpec       `json:"request"`
	Responses []ExampleResponse `json:"response,omitempty"`
}

// RequestSpec carries the raw JSON body of the method's first captured
// request example.
type RequestSpec struct {
	Method      string   `json:"method"`
	Header      []Header `json:"header"`
	Body        RawBody  `json:"body"`
	URL         URLSpec  `json:"url"`
	Description string   `json:"description,omitempty"`
}

type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type RawBody struct {
	Mode string `json:"mode"`
	Raw  string `json:"raw"`
}

type URLSpec struct {
	Raw string `json:"raw"`
}

// ExampleResponse is a captured response payload tagged with its outcome.
type ExampleResponse struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

const collectionSchema = "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"

// placeholderRequest is used when documentation captured no request example.
const placeholderURL = "http://127.0.0.1:7783"

// BuildCollections buckets documented methods by version and category. Only
// methods with a documentation side are included: a collection entry without
// examples or field knowledge would be unusable.
func BuildCollections(results []reconcile.Result, categorize Categorizer) map[string]Collection {
	folders := make(map[string]map[string][]RequestItem)

	for _, r := range results {
		if r.Doc == nil {
			continue
		}
		category := categorize(r.Doc)

		item := RequestItem{
			Name:    r.Method,
			Request: requestSpec(r.Doc),
		}
		for _, ex := range r.Doc.Examples {
			if ex.Response == nil {
				continue
			}
			item.Responses = append(item.Responses, ExampleResponse{
				Name: ex.Outcome,
				Body: rawJSON(ex.Response),
			})
		}

		byCategory := folders[r.Version]
		if byCategory == nil {
			byCategory = make(map[string][]RequestItem)
			folders[r.Version] = byCategory
		}
		byCategory[category] = append(byCategory[category], item)
	}

	collections := make(map[string]Collection, len(folders))
	for version, byCategory := range folders {
		names := make([]string, 0, len(byCategory))
		for name := range byCategory {
			names = append(names, name)
		}
		sort.Strings(names)

		col := Collection{
			Info: CollectionInfo{
				Name:   "API methods (" + version + ")",
				Schema: collectionSchema,
			},
		}
		for _, name := range names {
			items := byCategory[name]
			sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
			col.Folders = append(col.Folders, Folder{Name: name, Items: items})
		}
		collections[version] = col
	}
	return collections
}

func requestSpec(def *extract.MethodDefinition) RequestSpec {
	spec := RequestSpec{
		Method:      "POST",
		Header:      []Header{{Key: "Content-Type", Value: "application/json"}},
		URL:         URLSpec{Raw: placeholderURL},
		Description: def.Description,
		Body:        RawBody{Mode: "raw"},
	}

	for _, ex := range def.Examples {
		if ex.Outcome == "success" && ex.Request != nil {
			spec.Body.Raw = rawJSON(ex.Request)
			return spec
		}
	}

	// No captured request example: synthesize the minimal envelope.
	envelope := map[string]any{
		"userpass": "RPC_UserP@SSW0RD",
		"method":   def.Name,
	}
	spec.Body.Raw = rawJSON(envelope)
	return spec
}

func rawJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

// DefaultCategory derives a fallback category from a method's namespace
// prefix, e.g. task::enable_utxo::init belongs to "task".
func DefaultCategory(name string) string {
	if idx := strings.Index(name, "::"); idx > 0 {
		return name[:idx]
	}
	return "general"
}
