/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Taxinomia Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/views"
	"github.com/google/tabula/datasources"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mem := datasources.NewMemorySource()
	mem.AddTable("orders", []string{"id", "category", "amount"}, nil, []columns.Row{
		{"id": 1, "category": "A", "amount": 10},
		{"id": 2, "category": "B", "amount": 5},
		{"id": 3, "category": "A", "amount": 20},
	})
	sources := datasources.NewManager(nil)
	sources.Register("mem", mem)

	srv, err := NewServer(Config{
		Sources: sources,
		Views: []views.ViewConfig{
			{
				Name:    "orders",
				Source:  "mem",
				Columns: []any{"id", "category", map[string]any{"field": "amount", "summary": "sum"}},
			},
			{Name: "broken", Source: "nowhere"},
		},
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, target string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(target)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func post(t *testing.T, target string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(target, "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func decodeView(t *testing.T, body string) views.TableViewModel {
	t.Helper()
	var vm views.TableViewModel
	require.NoError(t, json.Unmarshal([]byte(body), &vm))
	return vm
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", body)
}

func TestListViews(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts.URL+"/views")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list views.LandingViewModel
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	require.Len(t, list.Views, 2)
	assert.Equal(t, "broken", list.Views[0].Name)
	assert.Equal(t, "orders", list.Views[1].Name)

	resp, body = get(t, ts.URL+"/views?format=html")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, `href="/views/orders?format=html"`)
}

func TestGetView(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts.URL+"/views/orders")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	vm := decodeView(t, body)
	assert.Equal(t, 3, vm.TotalRows)
	require.Len(t, vm.Columns, 3)
	require.Len(t, vm.Summaries, 3)
	assert.Equal(t, "35", vm.Summaries[2].Text)

	params := url.Values{"filter": {`["category","=","A"]`}, "sort": {"amount:desc"}}
	_, body = get(t, ts.URL+"/views/orders?"+params.Encode())
	vm = decodeView(t, body)
	require.Len(t, vm.Items, 2)
	assert.Equal(t, "3", vm.Items[0].RowKey)

	_, body = get(t, ts.URL+"/views/orders?viewport=2&scroll=1")
	vm = decodeView(t, body)
	require.Len(t, vm.Items, 2)
	assert.Equal(t, 1, vm.Items[0].Index)
}

func TestGetViewErrors(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := get(t, ts.URL+"/views/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := get(t, ts.URL+"/views/broken")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, "no row source")

	resp, _ = get(t, ts.URL+"/views/orders?format=xml")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetViewFormats(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts.URL+"/views/orders?format=html&grouped=category")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "A (2)")
	assert.Contains(t, body, "/views/orders/groups/toggle?key=A")

	resp, body = get(t, ts.URL+"/views/orders?format=text")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Σ 35")

	resp, body = get(t, ts.URL+"/views/orders?format=csv")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(body, "Id,Category,Amount"))
}

func TestToggleGroup(t *testing.T) {
	ts := newTestServer(t)

	_, body := get(t, ts.URL+"/views/orders?grouped=category")
	vm := decodeView(t, body)
	require.Len(t, vm.Groups, 2)
	assert.False(t, vm.Groups[0].Collapsed)

	resp, body := post(t, ts.URL+"/views/orders/groups/toggle?key=A")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"key": "A", "collapsed": true}`, body)

	_, body = get(t, ts.URL+"/views/orders?grouped=category")
	vm = decodeView(t, body)
	assert.True(t, vm.Groups[0].Collapsed)
	assert.Equal(t, 3, vm.TotalItems)
}

func TestSelectRow(t *testing.T) {
	ts := newTestServer(t)

	resp, body := post(t, ts.URL+"/views/orders/select?row=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"row": "2", "selected": true, "rows": ["2"]}`, body)

	_, body = get(t, ts.URL+"/views/orders")
	vm := decodeView(t, body)
	assert.Equal(t, []string{"2"}, vm.Selected)
	assert.True(t, vm.Items[1].Selected)

	resp, _ = post(t, ts.URL+"/views/orders/select")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = post(t, ts.URL+"/views/missing/select?row=1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// gatedSource holds the first Find until release is closed.
type gatedSource struct {
	*datasources.MemorySource
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (g *gatedSource) Find(ctx context.Context, object string, params datasources.FindParams) (*datasources.FindResult, error) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.started)
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.MemorySource.Find(ctx, object, params)
}

func TestConcurrentRequestsKeepTheirOwnQuery(t *testing.T) {
	mem := datasources.NewMemorySource()
	mem.AddTable("items", []string{"id", "name"}, nil, []columns.Row{
		{"id": "A", "name": "first"},
		{"id": "B", "name": "second"},
	})
	src := &gatedSource{MemorySource: mem, started: make(chan struct{}), release: make(chan struct{})}
	sources := datasources.NewManager(nil)
	sources.Register("gated", src)
	srv, err := NewServer(Config{
		Sources: sources,
		Views:   []views.ViewConfig{{Name: "items", Source: "gated"}},
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	filterURL := func(id string) string {
		return ts.URL + "/views/items?filter=" + url.QueryEscape(`["id","=","`+id+`"]`)
	}

	type result struct {
		status int
		body   string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := http.Get(filterURL("A"))
		if err != nil {
			done <- result{err: err}
			return
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		done <- result{status: resp.StatusCode, body: string(body), err: err}
	}()
	<-src.started

	resp, body := get(t, filterURL("B"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	vmB := decodeView(t, body)
	require.Len(t, vmB.Items, 1)
	assert.Equal(t, "B", vmB.Items[0].Cells[0].Text)

	close(src.release)
	res := <-done
	require.NoError(t, res.err)
	require.Equal(t, http.StatusOK, res.status)
	vmA := decodeView(t, res.body)
	assert.True(t, vmA.Loaded)
	require.Len(t, vmA.Items, 1)
	assert.Equal(t, "A", vmA.Items[0].Cells[0].Text)
}

func TestTogglePostRedirectsOnlyToSameHost(t *testing.T) {
	ts := newTestServer(t)
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	host := strings.TrimPrefix(ts.URL, "http://")

	cases := []struct {
		referer string
		want    string
	}{
		{ts.URL + "/views/orders?format=html&grouped=category", "/views/orders?format=html&grouped=category"},
		{"https://evil.example/phish", "/views/orders?format=html"},
		{"//evil.example/phish", "/views/orders?format=html"},
		{"http://" + host + "//evil.example", "/views/orders?format=html"},
		{"javascript:alert(1)", "/views/orders?format=html"},
	}
	for _, tc := range cases {
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/views/orders/groups/toggle?key=A", nil)
		require.NoError(t, err)
		req.Header.Set("Referer", tc.referer)
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, tc.referer)
		assert.Equal(t, tc.want, resp.Header.Get("Location"), tc.referer)
	}
}

func TestRootRedirects(t *testing.T) {
	ts := newTestServer(t)
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/views?format=html", resp.Header.Get("Location"))
}

func TestNewServerRejectsInvalidView(t *testing.T) {
	_, err := NewServer(Config{Views: []views.ViewConfig{{Name: "x"}}})
	assert.Error(t, err)
}
