package puppet_test

import (
	"github.com/gogpu/gg"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nijigenerate/nicxlive-sub001/internal/deform"
	"github.com/nijigenerate/nicxlive-sub001/internal/diag"
	"github.com/nijigenerate/nicxlive-sub001/internal/driver"
	"github.com/nijigenerate/nicxlive-sub001/internal/param"
	"github.com/nijigenerate/nicxlive-sub001/internal/puppet"
	"github.com/nijigenerate/nicxlive-sub001/internal/veca"
)

var quad = []veca.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

func at(x, y float64) puppet.Transform {
	t := puppet.IdentityTransform()
	t.Translation = gg.Pt(x, y)
	return t
}

var _ = Describe("Puppet", func() {
	var (
		p   *puppet.Puppet
		rec *diag.Recorder
	)

	BeforeEach(func() {
		p = puppet.New()
		rec = &diag.Recorder{}
		p.Subscribe(rec)
	})

	Describe("nodes", func() {
		It("rejects duplicate names and unknown parents", func() {
			_, err := p.AddNode("root", puppet.Root, puppet.IdentityTransform())
			Expect(err).NotTo(HaveOccurred())

			_, err = p.AddNode("root", puppet.Root, puppet.IdentityTransform())
			Expect(err).To(MatchError(puppet.ErrDuplicateName))
		})

		It("parents top-level nodes to Root", func() {
			root, err := p.AddNode("root", puppet.Root, puppet.IdentityTransform())
			Expect(err).NotTo(HaveOccurred())
			Expect(root).NotTo(Equal(puppet.Root))

			n, err := p.NodeData(root)
			Expect(err).NotTo(HaveOccurred())
			Expect(n.Parent).To(Equal(puppet.Root))

			_, err = p.NodeData(puppet.Root)
			Expect(err).To(MatchError(puppet.ErrUnknownNode))
			Expect(p.RemoveNode(puppet.Root)).To(MatchError(puppet.ErrUnknownNode))
		})

		It("composes parent transforms", func() {
			root, _ := p.AddNode("root", puppet.Root, at(10, 0))
			child, _ := p.AddNode("child", root, at(0, 5))
			_, err := p.AddDeformable(child, quad, nil)
			Expect(err).NotTo(HaveOccurred())

			pts, err := p.WorldPoints(child)
			Expect(err).NotTo(HaveOccurred())
			Expect(pts[2].X).To(BeNumerically("~", 11, 1e-9))
			Expect(pts[2].Y).To(BeNumerically("~", 6, 1e-9))
		})

		It("removes a subtree and its meshes", func() {
			root, _ := p.AddNode("root", puppet.Root, puppet.IdentityTransform())
			arm, _ := p.AddNode("arm", root, puppet.IdentityTransform())
			hand, _ := p.AddNode("hand", arm, puppet.IdentityTransform())
			_, _ = p.AddDeformable(arm, quad, nil)
			_, _ = p.AddDeformable(hand, quad, nil)
			Expect(p.Atlases().Vertices.Count()).To(Equal(2))
			Expect(p.Atlases().Vertices.Stride()).To(Equal(8))

			Expect(p.RemoveNode(arm)).To(Succeed())
			Expect(p.Atlases().Vertices.Count()).To(Equal(0))
			Expect(p.Atlases().Vertices.Stride()).To(Equal(0))
			_, ok := p.Find("hand")
			Expect(ok).To(BeFalse())
			Expect(p.Nodes()).To(ConsistOf(root))
			Expect(p.RemoveNode(hand)).To(MatchError(puppet.ErrUnknownNode))
		})

		It("reports deformation compatibility", func() {
			a, _ := p.AddNode("a", puppet.Root, puppet.IdentityTransform())
			b, _ := p.AddNode("b", puppet.Root, puppet.IdentityTransform())
			c, _ := p.AddNode("c", puppet.Root, puppet.IdentityTransform())
			_, _ = p.AddDeformable(a, quad, nil)
			_, _ = p.AddDeformable(b, quad, nil)
			_, _ = p.AddDeformable(c, quad[:3], nil)

			Expect(p.AreDeformationNodesCompatible(a, b)).To(BeTrue())
			Expect(p.AreDeformationNodesCompatible(a, c)).To(BeFalse())
		})
	})

	Describe("Update", func() {
		It("advances motion tracks", func() {
			root, _ := p.AddNode("root", puppet.Root, puppet.IdentityTransform())
			Expect(p.AddMotion(root, &puppet.Track{Axis: puppet.AxisX, From: 0, To: 100, Duration: 1})).To(Succeed())

			p.Update(0.5)
			n, _ := p.NodeData(root)
			Expect(n.Local.Translation.X).To(BeNumerically("~", 50, 1e-3))
			Expect(p.Frame()).To(Equal(1))
		})

		It("applies parameter bindings to deformables", func() {
			root, _ := p.AddNode("root", puppet.Root, puppet.IdentityTransform())
			part, _ := p.AddDeformable(root, quad, nil)

			prm := param.New("stretch", false)
			_, err := p.AddParameter(prm)
			Expect(err).NotTo(HaveOccurred())
			b := param.NewDeformationBinding(prm, part, len(quad))
			b.SetValue(1, 0, deform.Uniform(len(quad), veca.Vec2{X: 4}))
			prm.Bind(b)
			prm.Value = gg.Pt(0.5, 0)

			p.Update(1.0 / 60)
			Expect(part.Deformed(0).X).To(BeNumerically("~", 2, 1e-5))

			prm.Value = gg.Pt(0, 0)
			p.Update(1.0 / 60)
			Expect(part.Deformed(0).X).To(BeNumerically("~", 0, 1e-5))
		})

		It("reports deformations above the magnitude limit", func() {
			root, _ := p.AddNode("root", puppet.Root, puppet.IdentityTransform())
			part, _ := p.AddDeformable(root, quad, nil)
			prm := param.New("blowout", false)
			_, _ = p.AddParameter(prm)
			b := param.NewDeformationBinding(prm, part, len(quad))
			b.SetValue(1, 0, deform.Uniform(len(quad), veca.Vec2{Y: 200}))
			prm.Bind(b)
			prm.Value = gg.Pt(1, 0)

			p.Update(1.0 / 60)
			Expect(rec.Count(diag.KindLargeDeformation)).To(BeNumerically(">=", 1))
		})

		It("swings a driven parameter when the anchor moves", func() {
			root, _ := p.AddNode("root", puppet.Root, puppet.IdentityTransform())
			hair, _ := p.AddNode("hair", root, puppet.IdentityTransform())
			part, _ := p.AddDeformable(hair, quad, nil)

			sway := param.New("sway", true)
			sway.Min, sway.Max = gg.Pt(-1, -1), gg.Pt(1, 1)
			id, _ := p.AddParameter(sway)
			b := param.NewDeformationBinding(sway, part, len(quad))
			for y := 0; y < 2; y++ {
				b.SetValue(0, y, deform.Uniform(len(quad), veca.Vec2{X: -10}))
				b.SetValue(1, y, deform.Uniform(len(quad), veca.Vec2{X: 10}))
			}
			sway.Bind(b)

			d, err := p.AddDriver(hair, driver.DefaultSettings(), id)
			Expect(err).NotTo(HaveOccurred())

			p.Update(1.0 / 60)
			v, pushed := d.Value()
			Expect(pushed).To(BeTrue())
			Expect(v.X).To(BeNumerically("~", 0, 1e-6))
			Expect(part.Deformed(0).X).To(BeNumerically("~", 0, 1e-4))

			for i := 1; i <= 10; i++ {
				Expect(p.SetTransform(root, at(float64(i)*5, 0))).To(Succeed())
				p.Update(1.0 / 60)
			}
			v, _ = d.Value()
			Expect(v.X).NotTo(BeNumerically("~", 0, 1e-6))
			Expect(sway.Forced()).To(BeTrue())
			Expect(part.Deformed(0).X).NotTo(BeNumerically("~", 0, 1e-4))
			Expect(rec.Count(diag.KindInvalidPhysics)).To(BeZero())
		})

		It("rate-limits missing parameter reports", func() {
			root, _ := p.AddNode("root", puppet.Root, puppet.IdentityTransform())
			_, err := p.AddDriver(root, driver.DefaultSettings(), puppet.NoParam)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 30; i++ {
				p.Update(1.0 / 60)
			}
			Expect(rec.Count(diag.KindMissingParameter)).To(Equal(1))
		})

		It("rejects drivers aimed at unknown parameters", func() {
			root, _ := p.AddNode("root", puppet.Root, puppet.IdentityTransform())
			_, err := p.AddDriver(root, driver.DefaultSettings(), 7)
			Expect(err).To(MatchError(puppet.ErrUnknownParam))
		})

		It("treats a negative or non-finite dt as zero", func() {
			root, _ := p.AddNode("root", puppet.Root, puppet.IdentityTransform())
			_, _ = p.AddDriver(root, driver.DefaultSettings(), puppet.NoParam)

			p.Update(-1)
			Expect(p.Time()).To(BeZero())
		})
	})

	It("counts nodes by component", func() {
		root, _ := p.AddNode("root", puppet.Root, puppet.IdentityTransform())
		_, _ = p.AddNode("leaf", root, puppet.IdentityTransform())
		_, _ = p.AddDeformable(root, quad, nil)

		Expect(p.CountWith(puppet.Node)).To(Equal(2))
		Expect(p.CountWith(puppet.Deformable)).To(Equal(1))
	})
})
