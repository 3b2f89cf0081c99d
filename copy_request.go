// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import "github.com/gogpu/proptree/geom"

// CopyOutputResult is delivered to a CopyOutputRequest callback. An empty
// result means the request was aborted.
type CopyOutputResult struct {
	// Area is the captured rect in surface space.
	Area geom.Rect
	// Pixels holds the captured contents. The compositor that fulfills the
	// request decides the layout.
	Pixels []byte
}

// IsEmpty reports whether the result carries no capture.
func (r CopyOutputResult) IsEmpty() bool {
	return r.Area.IsEmpty() && len(r.Pixels) == 0
}

// CopyOutputRequest asks for the contents of a render surface.
//
// A request delivers exactly one result. Requests that are dropped by the
// effect tree receive an empty result, so callers never wait forever.
type CopyOutputRequest struct {
	area     geom.Rect
	hasArea  bool
	callback func(CopyOutputResult)
	sent     bool
}

// NewCopyOutputRequest creates a request whose result is passed to cb.
func NewCopyOutputRequest(cb func(CopyOutputResult)) *CopyOutputRequest {
	return &CopyOutputRequest{callback: cb}
}

// SetArea restricts the capture to area, in the content space of the
// surface's layer.
func (r *CopyOutputRequest) SetArea(area geom.Rect) {
	r.area = area
	r.hasArea = true
}

// Area returns the capture area and whether one was set.
func (r *CopyOutputRequest) Area() (geom.Rect, bool) {
	return r.area, r.hasArea
}

// HasArea reports whether a capture area was set.
func (r *CopyOutputRequest) HasArea() bool { return r.hasArea }

// IsSent reports whether a result was delivered.
func (r *CopyOutputRequest) IsSent() bool { return r.sent }

// SendResult delivers res. Later calls are ignored.
func (r *CopyOutputRequest) SendResult(res CopyOutputResult) {
	if r.sent {
		return
	}
	r.sent = true
	if r.callback != nil {
		r.callback(res)
	}
}

// SendEmptyResult aborts the request.
func (r *CopyOutputRequest) SendEmptyResult() {
	r.SendResult(CopyOutputResult{})
}

// abortCopyRequests sends an empty result to every request in reqs.
func abortCopyRequests(reqs map[int][]*CopyOutputRequest) int {
	n := 0
	for _, list := range reqs {
		for _, r := range list {
			r.SendEmptyResult()
			n++
		}
	}
	return n
}
