package worker_test

import (
	"context"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dynlayout/internal/buffer"
	"github.com/san-kum/dynlayout/internal/config"
	"github.com/san-kum/dynlayout/internal/graph"
	"github.com/san-kum/dynlayout/internal/sim"
	"github.com/san-kum/dynlayout/internal/worker"
)

func pairBuffers() ([]float64, []float64) {
	nodes := make([]float64, 2*buffer.NodeStride)
	nodes[buffer.Mass] = 1
	nodes[buffer.NodeStride+buffer.X] = 10
	nodes[buffer.NodeStride+buffer.Mass] = 1
	return nodes, []float64{0, buffer.NodeStride, 1}
}

func gap(nodes []float64) float64 {
	return nodes[buffer.NodeStride+buffer.X] - nodes[buffer.X]
}

type tickCounter struct{ ticks []int }

func (c *tickCounter) OnTick(s sim.TickStats) { c.ticks = append(c.ticks, s.Tick) }

var _ = Describe("Context", func() {
	var ctx *worker.Context

	BeforeEach(func() {
		ctx = worker.NewContext()
	})

	It("rejects loop before start", func() {
		nodes, _ := pairBuffers()
		_, err := ctx.Handle(worker.Message{Header: worker.HeaderLoop, Nodes: nodes})
		Expect(err).To(MatchError(worker.ErrNotStarted))
		Expect(ctx.Started()).To(BeFalse())
	})

	It("ignores unknown headers", func() {
		reply, err := ctx.Handle(worker.Message{Header: "stop"})
		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(BeNil())
	})

	It("runs one tick on start and hands the same buffer back", func() {
		nodes, edges := pairBuffers()
		reply, err := ctx.Handle(worker.Message{
			Header: worker.HeaderStart,
			Nodes:  nodes,
			Edges:  edges,
			Config: config.ParameterMap{config.KeyGravity: 0},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Stats.Tick).To(Equal(1))
		Expect(&reply.Nodes[0]).To(BeIdenticalTo(&nodes[0]))
		Expect(gap(reply.Nodes)).To(BeNumerically("<", 10))
		Expect(ctx.Simulator().Params().ScalingRatio).To(Equal(10.0))
	})

	Context("once started", func() {
		var nodes []float64

		BeforeEach(func() {
			var edges []float64
			nodes, edges = pairBuffers()
			_, err := ctx.Handle(worker.Message{Header: worker.HeaderStart, Nodes: nodes, Edges: edges})
			Expect(err).NotTo(HaveOccurred())
		})

		It("runs exactly one more tick per loop", func() {
			for i := 2; i <= 4; i++ {
				reply, err := ctx.Handle(worker.Message{Header: worker.HeaderLoop, Nodes: nodes})
				Expect(err).NotTo(HaveOccurred())
				Expect(reply.Stats.Tick).To(Equal(i))
				nodes = reply.Nodes
			}
			Expect(ctx.Simulator().Cursor()).To(Equal(sim.Cursor{}))
		})

		It("accepts host edits between ticks", func() {
			edited := append([]float64(nil), nodes...)
			edited[buffer.NodeStride+buffer.X] = 100
			reply, err := ctx.Handle(worker.Message{Header: worker.HeaderLoop, Nodes: edited})
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Nodes[buffer.NodeStride+buffer.X]).To(BeNumerically("<", 100))
			Expect(reply.Nodes[buffer.NodeStride+buffer.X]).To(BeNumerically(">", 50))
		})

		It("rejects a buffer for another topology", func() {
			_, err := ctx.Handle(worker.Message{Header: worker.HeaderLoop, Nodes: make([]float64, 3*buffer.NodeStride)})
			Expect(err).To(MatchError(worker.ErrTopologyMismatch))
		})
	})

	It("rejects invalid configuration", func() {
		nodes, edges := pairBuffers()
		_, err := ctx.Handle(worker.Message{
			Header: worker.HeaderStart, Nodes: nodes, Edges: edges,
			Config: config.ParameterMap{config.KeyScalingRatio: "big"},
		})
		Expect(err).To(MatchError(config.ErrInvalidParameter))
		Expect(ctx.Started()).To(BeFalse())
	})

	It("rejects misaligned edges by aborting the tick", func() {
		nodes, _ := pairBuffers()
		_, err := ctx.Handle(worker.Message{Header: worker.HeaderStart, Nodes: nodes, Edges: []float64{0, 3, 1}})
		Expect(err).To(MatchError(buffer.ErrIndexAlignment))
		Expect(ctx.Simulator().Cursor()).To(Equal(sim.Cursor{}))
	})

	It("reads sized buffers when adjustSizes is set", func() {
		nodes := make([]float64, 2*buffer.SizedNodeStride)
		for i, x := range []float64{0, 1} {
			s := i * buffer.SizedNodeStride
			nodes[s+buffer.X] = x
			nodes[s+buffer.Mass] = 1
			nodes[s+buffer.Size] = 1
		}
		reply, err := ctx.Handle(worker.Message{
			Header: worker.HeaderStart, Nodes: nodes,
			Config: config.ParameterMap{config.KeyAdjustSizes: true, config.KeyGravity: 0},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Nodes[buffer.SizedNodeStride+buffer.X] - reply.Nodes[buffer.X]).To(BeNumerically(">", 1))
	})
})

var _ = Describe("Worker", func() {
	var (
		w       *worker.Worker
		counter *tickCounter
		ctx     context.Context
		cancel  context.CancelFunc
	)

	BeforeEach(func() {
		counter = &tickCounter{}
		w = worker.Start(worker.WithObserver(counter))
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	})

	AfterEach(func() {
		cancel()
		Expect(w.Close()).To(Succeed())
	})

	It("runs start and loop round trips", func() {
		nodes, edges := pairBuffers()
		reply, err := w.Call(ctx, worker.Message{
			Header: worker.HeaderStart, Nodes: nodes, Edges: edges,
			Config: config.ParameterMap{config.KeyGravity: 0},
		})
		Expect(err).NotTo(HaveOccurred())

		first := gap(reply.Nodes)
		for i := 0; i < 5; i++ {
			reply, err = w.Call(ctx, worker.Message{Header: worker.HeaderLoop, Nodes: reply.Nodes})
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(gap(reply.Nodes)).To(BeNumerically("<", first))
		Expect(counter.ticks).To(Equal([]int{1, 2, 3, 4, 5, 6}))
	})

	It("returns errors as replies", func() {
		nodes, _ := pairBuffers()
		_, err := w.Call(ctx, worker.Message{Header: worker.HeaderLoop, Nodes: nodes})
		Expect(err).To(MatchError(worker.ErrNotStarted))
	})

	It("delivers posted replies on the channel", func() {
		nodes, edges := pairBuffers()
		Expect(w.Post(ctx, worker.Message{Header: worker.HeaderStart, Nodes: nodes, Edges: edges})).To(Succeed())
		var reply worker.Reply
		Eventually(w.Replies()).Should(Receive(&reply))
		Expect(reply.Err).NotTo(HaveOccurred())
		Expect(reply.Stats.Tick).To(Equal(1))
	})

	It("drops unknown headers", func() {
		reply, err := w.Call(ctx, worker.Message{Header: "noop"})
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Nodes).To(BeNil())
	})

	It("waits for the tick in flight when the caller gives up", func() {
		g, err := graph.Generate("random:2000", 1)
		Expect(err).NotTo(HaveOccurred())
		nodes, edges := g.Buffers(false, 1)

		short, stop := context.WithTimeout(ctx, time.Millisecond)
		defer stop()
		reply, err := w.Call(short, worker.Message{Header: worker.HeaderStart, Nodes: nodes.Data, Edges: edges.Data})
		if reply.Nodes != nil {
			Expect(&reply.Nodes[0]).To(BeIdenticalTo(&nodes.Data[0]))
		} else {
			Expect(err).To(MatchError(context.DeadlineExceeded))
		}

		// The buffer is back with the caller.
		var sum float64
		for _, v := range nodes.Data {
			sum += v
		}
		Expect(math.IsNaN(sum)).To(BeFalse())

		small, smallEdges := pairBuffers()
		reply, err = w.Call(ctx, worker.Message{Header: worker.HeaderStart, Nodes: small, Edges: smallEdges})
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Nodes).To(HaveLen(2 * buffer.NodeStride))
		Expect(reply.Stats.Tick).To(Equal(1))
	})

	It("returns the finished tick with the cancellation", func() {
		nodes, edges := pairBuffers()
		cancelled, stop := context.WithCancel(ctx)
		stop()

		reply, err := w.Call(cancelled, worker.Message{Header: worker.HeaderStart, Nodes: nodes, Edges: edges})
		if reply.Nodes != nil {
			Expect(err).To(MatchError(context.Canceled))
			Expect(reply.Stats.Tick).To(Equal(1))
		}

		reply, err = w.Call(ctx, worker.Message{Header: worker.HeaderLoop, Nodes: nodes})
		if reply.Nodes == nil {
			Expect(err).To(MatchError(worker.ErrNotStarted))
		} else {
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Stats.Tick).To(Equal(2))
		}
	})

	It("refuses messages after close", func() {
		Expect(w.Close()).To(Succeed())
		nodes, _ := pairBuffers()
		Expect(w.Post(ctx, worker.Message{Header: worker.HeaderLoop, Nodes: nodes})).To(MatchError(worker.ErrClosed))
	})
})
