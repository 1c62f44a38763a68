package route

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargetKind(t *testing.T) {
	assert.Equal(t, KindNone, Target{}.Kind())
	assert.Equal(t, KindRemote, Target{Remote: "http://a"}.Kind())
	assert.Equal(t, KindRemotePool, Target{RemotePool: []string{"http://a", "http://b"}}.Kind())
	assert.Equal(t, KindFile, Target{File: "/var/www/index.html"}.Kind())
	assert.Equal(t, KindHandler, Target{Handler: fakeHandler{}}.Kind())
}

func TestTargetKindPrecedence(t *testing.T) {
	// A handler takes precedence even if other fields are also set, since
	// Kind checks handler first.
	target := Target{Remote: "http://a", Handler: fakeHandler{}}
	assert.Equal(t, KindHandler, target.Kind())
}

func TestHasCIDRRestriction(t *testing.T) {
	assert.False(t, Spec{}.HasCIDRRestriction())
	assert.True(t, Spec{AllowedCIDRs: []string{}}.HasCIDRRestriction())
	assert.True(t, Spec{AllowedCIDRs: []string{"10.0.0.0/8"}}.HasCIDRRestriction())
}

type fakeHandler struct{}

func (fakeHandler) Handle(ctx context.Context, req *HandlerRequest) (*HandlerResult, error) {
	return nil, nil
}
