package config

import "errors"

const DefaultMatteHome = "~/.matte"

var DefaultSegmentTopic = "matteworks/segmentations/requests"

var ErrMatteHomeExpandFailed = errors.New("failed to expand matte home directory")
