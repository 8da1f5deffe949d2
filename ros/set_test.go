package ros

import (
	"reflect"
	"testing"
)

func TestSetDifference(t *testing.T) {
	lhs := []string{"http://a:1", "http://b:2", "http://b:2", "http://c:3"}
	rhs := []string{"http://b:2", "http://d:4"}
	if diff := setDifference(lhs, rhs); !reflect.DeepEqual(diff, []string{"http://a:1", "http://c:3"}) {
		t.Error(diff)
	}
	if diff := setDifference(nil, rhs); len(diff) != 0 {
		t.Error(diff)
	}
	if diff := setDifference(rhs, nil); !reflect.DeepEqual(diff, rhs) {
		t.Error(diff)
	}
}
