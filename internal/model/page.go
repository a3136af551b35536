// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// PageType identifies the kind of page stored in a pages row.
type PageType string

// Page types.
const (
	PageTypeHome         PageType = "home"
	PageTypeAbout        PageType = "about"
	PageTypeEventIndex   PageType = "event_index"
	PageTypeNewsIndex    PageType = "news_index"
	PageTypePodcastIndex PageType = "podcast_index"
	PageTypeCourseIndex  PageType = "course_index"
	PageTypeEvent        PageType = "event"
	PageTypeNews         PageType = "news"
	PageTypePodcast      PageType = "podcast"
	PageTypeCourse       PageType = "course"
)

// Unlimited is the MaxCount of page types without an instance cap.
const Unlimited = -1

// PageTypeInfo describes where a page type may live in the tree.
type PageTypeInfo struct {
	Type PageType
	// Parents lists allowed parent types. Empty means root only.
	Parents []PageType
	// Children lists allowed child types. Empty means a leaf.
	Children []PageType
	// MaxCount caps the number of pages of this type, or Unlimited.
	MaxCount int
}

var pageTypes = map[PageType]PageTypeInfo{
	PageTypeHome: {
		Type: PageTypeHome,
		Children: []PageType{
			PageTypeEventIndex, PageTypeNewsIndex, PageTypePodcastIndex, PageTypeCourseIndex, PageTypeAbout,
		},
		MaxCount: 1,
	},
	PageTypeAbout:        {Type: PageTypeAbout, Parents: []PageType{PageTypeHome}, MaxCount: 1},
	PageTypeEventIndex:   indexInfo(PageTypeEventIndex, PageTypeEvent),
	PageTypeNewsIndex:    indexInfo(PageTypeNewsIndex, PageTypeNews),
	PageTypePodcastIndex: indexInfo(PageTypePodcastIndex, PageTypePodcast),
	PageTypeCourseIndex:  indexInfo(PageTypeCourseIndex, PageTypeCourse),
	PageTypeEvent:        detailInfo(PageTypeEvent, PageTypeEventIndex),
	PageTypeNews:         detailInfo(PageTypeNews, PageTypeNewsIndex),
	PageTypePodcast:      detailInfo(PageTypePodcast, PageTypePodcastIndex),
	PageTypeCourse:       detailInfo(PageTypeCourse, PageTypeCourseIndex),
}

func indexInfo(index, detail PageType) PageTypeInfo {
	return PageTypeInfo{
		Type:     index,
		Parents:  []PageType{PageTypeHome},
		Children: []PageType{detail},
		MaxCount: 1,
	}
}

func detailInfo(detail, index PageType) PageTypeInfo {
	return PageTypeInfo{
		Type:     detail,
		Parents:  []PageType{index},
		MaxCount: Unlimited,
	}
}

// LookupPageType returns the tree rules for t.
func LookupPageType(t PageType) (PageTypeInfo, bool) {
	info, ok := pageTypes[t]
	return info, ok
}

// Valid reports whether t is a known page type.
func (t PageType) Valid() bool {
	_, ok := pageTypes[t]
	return ok
}

// CanHaveChild reports whether a page of type t accepts a child of type child.
func (t PageType) CanHaveChild(child PageType) bool {
	info, ok := pageTypes[t]
	if !ok {
		return false
	}
	for _, c := range info.Children {
		if c == child {
			return true
		}
	}
	return false
}

// IsRoot reports whether t may only sit at the root of the tree.
func (t PageType) IsRoot() bool {
	info, ok := pageTypes[t]
	return ok && len(info.Parents) == 0
}

// HasContent reports whether pages of type t carry description, preview and body.
func (t PageType) HasContent() bool {
	switch t {
	case PageTypeAbout, PageTypeEvent, PageTypeNews, PageTypePodcast, PageTypeCourse:
		return true
	}
	return false
}

// IsIndex reports whether t is one of the category index types.
func (t PageType) IsIndex() bool {
	_, ok := indexDetail[t]
	return ok
}

// Category is a listing category shared by an index type and its detail type.
type Category struct {
	// Key is used in URLs and template context (events, news, podcasts, courses).
	Key    string
	Index  PageType
	Detail PageType
}

// Categories in homepage display order.
var Categories = []Category{
	{Key: "events", Index: PageTypeEventIndex, Detail: PageTypeEvent},
	{Key: "news", Index: PageTypeNewsIndex, Detail: PageTypeNews},
	{Key: "podcasts", Index: PageTypePodcastIndex, Detail: PageTypePodcast},
	{Key: "courses", Index: PageTypeCourseIndex, Detail: PageTypeCourse},
}

var indexDetail = map[PageType]PageType{
	PageTypeEventIndex:   PageTypeEvent,
	PageTypeNewsIndex:    PageTypeNews,
	PageTypePodcastIndex: PageTypePodcast,
	PageTypeCourseIndex:  PageTypeCourse,
}

// DetailType returns the detail type listed by index type t.
func (t PageType) DetailType() (PageType, bool) {
	d, ok := indexDetail[t]
	return d, ok
}

// CategoryByKey finds a category by its URL key.
func CategoryByKey(key string) (Category, bool) {
	for _, c := range Categories {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}

// AllPageTypes returns every known page type in a stable order.
func AllPageTypes() []PageType {
	return []PageType{
		PageTypeHome, PageTypeAbout,
		PageTypeEventIndex, PageTypeNewsIndex, PageTypePodcastIndex, PageTypeCourseIndex,
		PageTypeEvent, PageTypeNews, PageTypePodcast, PageTypeCourse,
	}
}

// Page field limits.
const (
	MaxTitleLength       = 255
	MaxSlugLength        = 255
	MaxDescriptionLength = 255
	MaxHeroTextLength    = 255
)

// CategoryByIndex finds the category listed by index type t.
func CategoryByIndex(t PageType) (Category, bool) {
	for _, c := range Categories {
		if c.Index == t {
			return c, true
		}
	}
	return Category{}, false
}
