package service

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/jeremymatt/photo-manager/api"
	"github.com/jeremymatt/photo-manager/compiler"
	"github.com/jeremymatt/photo-manager/compiler/batch"
	zqe "github.com/jeremymatt/photo-manager/errors"
	"github.com/jeremymatt/photo-manager/schema"
	"github.com/jeremymatt/photo-manager/tagtree"
	"github.com/jeremymatt/photo-manager/zfmt"
	"go.uber.org/zap"
)

func handleQuery(c *Core, w *ResponseWriter, r *Request) {
	var req api.QueryRequest
	if !r.Unmarshal(w, &req) {
		return
	}
	r.Query = req.Query
	strategy := req.Strategy
	if strategy == "" {
		strategy = api.StrategyBatch
	}
	if strategy != api.StrategyBatch && strategy != api.StrategyDirect {
		w.Error(zqe.ErrInvalid("unknown strategy %q", strategy))
		return
	}
	start := time.Now()
	res, err := c.runQuery(r, req.Query, strategy)
	c.metrics.duration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.queries.WithLabelValues(strategy, "error").Inc()
		w.Error(err)
		return
	}
	c.metrics.queries.WithLabelValues(strategy, "ok").Inc()
	r.Logger.Debug("Query",
		zap.String("canonical", res.Canonical),
		zap.String("strategy", strategy),
		zap.Int("count", res.Count),
	)
	w.Respond(http.StatusOK, res)
}

func (c *Core) runQuery(r *Request, src, strategy string) (*api.QueryResponse, error) {
	ctx := r.Context()
	res := &api.QueryResponse{Strategy: strategy, IDs: []int64{}, Paths: []string{}}
	var ids []int64
	if strategy == api.StrategyBatch {
		f, err := c.compileBatch(src, res)
		if err != nil {
			return nil, err
		}
		if ids, err = c.catalog.Select(ctx, f); err != nil {
			return nil, err
		}
		records, err := c.catalog.Images(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			res.IDs = append(res.IDs, rec.ID)
			res.Paths = append(res.Paths, rec.Path)
		}
	} else {
		records, err := c.catalog.Records(ctx)
		if err != nil {
			return nil, err
		}
		match := func(*schema.Record) bool { return true }
		if strings.TrimSpace(src) != "" {
			q, err := compiler.Compile(src, c.catalog.Snapshot())
			if err != nil {
				return nil, err
			}
			res.Canonical = q.String()
			match = q.Match
		}
		for _, rec := range records {
			if match(rec) {
				res.IDs = append(res.IDs, rec.ID)
				res.Paths = append(res.Paths, rec.Path)
			}
		}
	}
	res.Count = len(res.IDs)
	return res, nil
}

// compileBatch compiles src to a filter for the catalog and sets the
// canonical query text in res.  A blank query selects every image.
func (c *Core) compileBatch(src string, res *api.QueryResponse) (*batch.Filter, error) {
	if strings.TrimSpace(src) == "" {
		return c.catalog.Compile(src)
	}
	q, err := compiler.Compile(src, c.catalog.Snapshot())
	if err != nil {
		return nil, err
	}
	res.Canonical = q.String()
	return q.SQL(c.catalog.Dialect())
}

func handleAST(c *Core, w *ResponseWriter, r *Request) {
	var req api.ASTRequest
	if !r.Unmarshal(w, &req) {
		return
	}
	r.Query = req.Query
	e, err := compiler.Parse(req.Query)
	if err != nil {
		w.Error(err)
		return
	}
	canonical := zfmt.AST(e)
	if req.Normalize {
		q, err := compiler.CompileAST(req.Query, e, c.catalog.Snapshot())
		if err != nil {
			w.Error(err)
			return
		}
		e, canonical = q.AST(), q.String()
	}
	b, err := json.Marshal(e)
	if err != nil {
		w.Error(err)
		return
	}
	w.Respond(http.StatusOK, api.ASTResponse{AST: b, Canonical: canonical})
}

func handleTagsGet(c *Core, w *ResponseWriter, r *Request) {
	tree := c.catalog.Tags()
	tags := []api.Tag{}
	tree.Walk(func(n tagtree.Node, _ int) error {
		tags = append(tags, api.Tag{
			ID:     int64(n.ID),
			Path:   tree.Path(n.ID),
			Parent: int64(n.Parent),
		})
		return nil
	})
	w.Respond(http.StatusOK, tags)
}

func handleTagPost(c *Core, w *ResponseWriter, r *Request) {
	var req api.TagPostRequest
	if !r.Unmarshal(w, &req) {
		return
	}
	id, err := c.catalog.EnsureTag(r.Context(), req.Path)
	if err != nil {
		w.Error(err)
		return
	}
	tree := c.catalog.Tags()
	n, _ := tree.Node(id)
	w.Respond(http.StatusOK, api.Tag{ID: int64(id), Path: tree.Path(id), Parent: int64(n.Parent)})
}

func handleFieldsGet(c *Core, w *ResponseWriter, r *Request) {
	w.Respond(http.StatusOK, api.FieldsResponse{Fields: c.catalog.Schema().Fields()})
}

func handleImagePost(c *Core, w *ResponseWriter, r *Request) {
	var req api.ImagePostRequest
	if !r.Unmarshal(w, &req) {
		return
	}
	if req.Path == "" {
		w.Error(zqe.ErrInvalid("image path required"))
		return
	}
	fields := make(map[string]schema.Value, len(req.Fields))
	for name, raw := range req.Fields {
		f, ok := c.catalog.Schema().Lookup(name)
		if !ok {
			w.Error(zqe.ErrInvalid("unknown field %q", name))
			return
		}
		v, err := schema.Coerce(f.Kind, raw)
		if err != nil {
			w.Error(zqe.ErrInvalid("field %q: %w", name, err))
			return
		}
		fields[f.Name] = v
	}
	id, err := c.catalog.AddImage(r.Context(), req.Path, fields)
	if err != nil {
		w.Error(err)
		return
	}
	for _, tag := range req.Tags {
		if err := c.catalog.AssignTag(r.Context(), id, tag); err != nil {
			w.Error(err)
			return
		}
	}
	w.Respond(http.StatusCreated, api.ImagePostResponse{ID: id})
}

func handleImageGet(c *Core, w *ResponseWriter, r *Request) {
	id, ok := r.IDFromPath(w, "id")
	if !ok {
		return
	}
	records, err := c.catalog.Images(r.Context(), []int64{id})
	if err != nil {
		w.Error(err)
		return
	}
	if len(records) == 0 {
		w.Error(zqe.ErrNotFound("image %d", id))
		return
	}
	rec := records[0]
	w.Respond(http.StatusOK, struct {
		*schema.Record
		Tags []string `json:"tags"`
	}{rec, rec.Tags.Sorted()})
}

func handleImageTagPost(c *Core, w *ResponseWriter, r *Request) {
	id, ok := r.IDFromPath(w, "id")
	if !ok {
		return
	}
	var req api.TagPostRequest
	if !r.Unmarshal(w, &req) {
		return
	}
	if err := c.catalog.AssignTag(r.Context(), id, req.Path); err != nil {
		w.Error(err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleImageTagDelete(c *Core, w *ResponseWriter, r *Request) {
	id, ok := r.IDFromPath(w, "id")
	if !ok {
		return
	}
	tag, ok := r.StringFromPath(w, "tag")
	if !ok {
		return
	}
	if err := c.catalog.UnassignTag(r.Context(), id, tag); err != nil {
		w.Error(err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleStatus(c *Core, w *ResponseWriter, r *Request) {
	n, err := c.catalog.Count(r.Context(), "")
	if err != nil {
		w.Error(err)
		return
	}
	w.Respond(http.StatusOK, api.StatusResponse{
		OK:      true,
		Dialect: c.catalog.Dialect().Name(),
		Images:  n,
		Tags:    c.catalog.Tags().Len(),
	})
}

func handleVersion(c *Core, w *ResponseWriter, r *Request) {
	w.Respond(http.StatusOK, api.VersionResponse{Version: c.conf.Version})
}
