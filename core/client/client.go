// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package client provides easy and fast in-process access to a REST api

Instead of marshalling HTTP, the client talks directly to the mux router or to
the complete handler chain. The client is the tool of choice for unit tests. With
NewWithURL the same calls go to a remote server.
*/
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

// APIPrefix is the path prefix of all collections
const APIPrefix = "/api"

// Client provides easy access to the REST API.
type Client struct {
	handler    http.Handler
	httpClient *http.Client
	url        string
	token      string
	ctx        context.Context

	defaultHeaders map[string]string
}

// Response is a response of any status
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// JSON unmarshals the response body into result
func (r Response) JSON(result interface{}) error {
	return json.Unmarshal(r.Body, result)
}

// Error returns the "error" property of a JSON error body
func (r Response) Error() string {
	var body struct {
		Error string `json:"error"`
	}
	json.Unmarshal(r.Body, &body)
	return body.Error
}

// NewWithRouter creates a client to make pseudo-REST requests to the backend,
// through the mux router
//
// WithToken() adds a bearer token to the requests.
// WithContext() specifies a different base context all together.
func NewWithRouter(router *mux.Router) Client {
	if router == nil {
		return NewWithHandler(nil)
	}
	return NewWithHandler(router)
}

// NewWithHandler creates a client to make pseudo-REST requests to any handler,
// typically the backend with its complete middleware chain
func NewWithHandler(handler http.Handler) Client {
	return Client{
		handler:        handler,
		defaultHeaders: map[string]string{},
	}
}

// NewWithURL creates a client to make REST requests to the backend
//
// WithToken adds an authorization token to the request header.
func NewWithURL(url string) Client {
	return Client{
		url:            strings.TrimSuffix(url, "/"),
		httpClient:     &http.Client{Timeout: 20 * time.Second},
		defaultHeaders: map[string]string{},
	}
}

// WithHeader returns a new client with a default header added
func (c Client) WithHeader(key string, value string) Client {
	headers := make(map[string]string, len(c.defaultHeaders)+1)
	for k, v := range c.defaultHeaders {
		headers[k] = v
	}
	headers[key] = value
	c.defaultHeaders = headers
	return c
}

// WithToken returns a new client which sends token as bearer token
func (c Client) WithToken(token string) Client {
	c.token = token
	return c
}

// WithContext returns a new client with specific request context
func (c Client) WithContext(ctx context.Context) Client {
	c.ctx = ctx
	return c
}

// Context returns the base context of requests
func (c Client) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Do sends a request and returns the response whatever its status
func (c Client) Do(method, path string, header map[string]string, body io.Reader) (Response, error) {
	r, err := http.NewRequestWithContext(c.Context(), method, c.url+path, body)
	if err != nil {
		return Response{}, err
	}
	for key, value := range c.defaultHeaders {
		r.Header.Set(key, value)
	}
	for key, value := range header {
		r.Header.Set(key, value)
	}
	if c.token != "" {
		r.Header.Set("Authorization", "Bearer "+c.token)
	}

	if c.handler != nil {
		rec := httptest.NewRecorder()
		c.handler.ServeHTTP(rec, r)
		res := rec.Result()
		return Response{Status: res.StatusCode, Header: res.Header, Body: rec.Body.Bytes()}, nil
	}

	res, err := c.httpClient.Do(r)
	if err != nil {
		return Response{Status: http.StatusInternalServerError}, err
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	return Response{Status: res.StatusCode, Header: res.Header, Body: resBody}, err
}

// DoJSON sends body marshalled as JSON. body can also be a []byte, or nil for
// no body at all.
func (c Client) DoJSON(method, path string, body interface{}) (Response, error) {
	if body == nil {
		return c.Do(method, path, nil, nil)
	}
	j, ok := body.([]byte)
	if !ok {
		var err error
		j, err = json.Marshal(body)
		if err != nil {
			return Response{Status: http.StatusBadRequest}, fmt.Errorf("%s to %s: %w", method, path, err)
		}
	}
	return c.Do(method, path, map[string]string{"Content-Type": "application/json"}, bytes.NewReader(j))
}

// expect checks the status of res against the accepted ones and unmarshals the
// body into result. result can also be raw *[]byte, or nil.
func expect(res Response, err error, result interface{}, accepted ...int) (int, error) {
	if err != nil {
		return res.Status, err
	}
	ok := false
	for _, status := range accepted {
		ok = ok || res.Status == status
	}
	if !ok {
		return res.Status, fmt.Errorf("handler returned wrong status code: got %v want %v. Error: %s",
			res.Status, accepted[0], strings.TrimSpace(string(res.Body)))
	}
	if len(res.Body) > 0 && result != nil {
		if raw, ok := result.(*[]byte); ok {
			*raw = res.Body
			return res.Status, nil
		}
		return res.Status, json.Unmarshal(res.Body, result)
	}
	return res.Status, nil
}

// RawGet gets the resource from path. Expects http.StatusOK as response, otherwise it will
// flag an error. Returns the actual http status code.
//
// The path can be extend with query strings.
//
// result can be map[string]interface{} or a raw *[]byte.
// result can be nil.
func (c Client) RawGet(path string, result interface{}) (int, error) {
	res, err := c.Do(http.MethodGet, path, nil, nil)
	return expect(res, err, result, http.StatusOK)
}

// RawPost posts a resource to path. Expects http.StatusCreated or http.StatusOK as response,
// otherwise it will flag an error. Returns the actual http status code.
//
// body can also be a []byte, result can also be raw *[]byte.
// result can be nil.
func (c Client) RawPost(path string, body interface{}, result interface{}) (int, error) {
	res, err := c.DoJSON(http.MethodPost, path, body)
	return expect(res, err, result, http.StatusCreated, http.StatusOK)
}

// RawPut puts a resource to path. Expects http.StatusOK as response, otherwise it will flag
// an error. Returns the actual http status code.
func (c Client) RawPut(path string, body interface{}, result interface{}) (int, error) {
	res, err := c.DoJSON(http.MethodPut, path, body)
	return expect(res, err, result, http.StatusOK)
}

// RawPatch patches a resource at path. Expects http.StatusOK as response, otherwise it will
// flag an error. Returns the actual http status code.
func (c Client) RawPatch(path string, body interface{}, result interface{}) (int, error) {
	res, err := c.DoJSON(http.MethodPatch, path, body)
	return expect(res, err, result, http.StatusOK)
}

// RawDelete deletes the resource at path. Expects http.StatusOK or http.StatusNoContent as
// response, otherwise it will flag an error.
//
// Returns the actual http status code.
func (c Client) RawDelete(path string) (int, error) {
	res, err := c.Do(http.MethodDelete, path, nil, nil)
	return expect(res, err, nil, http.StatusOK, http.StatusNoContent)
}

// File is a file of a multipart upload
type File struct {
	Name string
	Data []byte
}

// PostMultipart uploads files in field of a multipart form. Expects http.StatusOK or
// http.StatusCreated as response.
func (c Client) PostMultipart(path, field string, files []File, result interface{}) (int, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	for _, f := range files {
		fw, err := w.CreateFormFile(field, f.Name)
		if err != nil {
			return http.StatusBadRequest, err
		}
		if _, err = fw.Write(f.Data); err != nil {
			return http.StatusBadRequest, err
		}
	}
	if err := w.Close(); err != nil {
		return http.StatusBadRequest, err
	}
	res, err := c.Do(http.MethodPost, path, map[string]string{"Content-Type": w.FormDataContentType()}, &b)
	return expect(res, err, result, http.StatusOK, http.StatusCreated)
}

// Collection represents a collection of a particular resource, e.g. "projects"
type Collection struct {
	client     Client
	resource   string
	parameters url.Values
}

// Collection returns a new collection client
func (c Client) Collection(resource string) Collection {
	return Collection{client: c, resource: strings.Trim(resource, "/")}
}

// WithParameter returns a new collection client with a query parameter added
func (r Collection) WithParameter(key string, value string) Collection {
	parameters := url.Values{}
	for k, v := range r.parameters {
		parameters[k] = append([]string(nil), v...)
	}
	parameters.Add(key, value)
	r.parameters = parameters
	return r
}

// CollectionPath returns the path of the collection including query parameters
func (r Collection) CollectionPath() string {
	path := APIPrefix + "/" + r.resource
	if len(r.parameters) > 0 {
		path += "?" + r.parameters.Encode()
	}
	return path
}

// List lists the collection
func (r Collection) List(result interface{}) (int, error) {
	return r.client.RawGet(r.CollectionPath(), result)
}

// Create creates a new item in the collection
func (r Collection) Create(body interface{}, result interface{}) (int, error) {
	return r.client.RawPost(APIPrefix+"/"+r.resource, body, result)
}

// Item is a single item of a collection
type Item struct {
	client Client
	path   string
}

// Item returns a client for the item with the given id
func (r Collection) Item(id int64) Item {
	return Item{client: r.client, path: APIPrefix + "/" + r.resource + "/" + strconv.FormatInt(id, 10)}
}

// Path returns the path of the item
func (r Item) Path() string {
	return r.path
}

// Read reads the item
func (r Item) Read(result interface{}) (int, error) {
	return r.client.RawGet(r.path, result)
}

// Update updates the item with a partial body
func (r Item) Update(body interface{}, result interface{}) (int, error) {
	return r.client.RawPut(r.path, body, result)
}

// Delete deletes the item
func (r Item) Delete() (int, error) {
	return r.client.RawDelete(r.path)
}
