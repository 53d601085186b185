package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ClassListGenerationKey returns the counter bumped on every class mutation
func (r *CacheKeyStruct) ClassListGenerationKey() string {
	return "classes:list:gen"
}

// ClassListKey returns the cache key for the default class page at a generation
func (r *CacheKeyStruct) ClassListKey(generation string) string {
	return fmt.Sprintf("classes:list:%s", generation)
}

var CacheKey = NewCacheKeyStruct()
