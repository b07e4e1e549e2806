package main

import (
	"fmt"
	"strconv"
	"strings"
)

// sizeList is a flag value of comma separated positive numbers.
type sizeList []int

func (s *sizeList) String() string {
	parts := make([]string, 0, len(*s))
	for _, size := range *s {
		parts = append(parts, strconv.Itoa(size))
	}
	return strings.Join(parts, ",")
}

func (s *sizeList) Set(value string) error {
	var sizes []int
	for _, part := range strings.Split(value, ",") {
		size, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || size <= 0 {
			return fmt.Errorf("invalid size %q", part)
		}
		sizes = append(sizes, size)
	}
	*s = sizes
	return nil
}
