package puppet_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPuppet(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Puppet Suite")
}
