package environment

// CPU units of a Fargate task.
type CPU int

const (
	CPU256  CPU = 256
	CPU512  CPU = 512
	CPU1024 CPU = 1024
	CPU2048 CPU = 2048
	CPU4096 CPU = 4096
	CPU8192 CPU = 8192
)

// Memory of a Fargate task in MiB.
type Memory int

const (
	Memory512   Memory = 512
	Memory1024  Memory = 1024
	Memory2048  Memory = 2048
	Memory4096  Memory = 4096
	Memory8192  Memory = 8192
	Memory16384 Memory = 16384
)

type memoryRange struct {
	min, max, step Memory
}

// fargateSizes is the AWS table of memory values accepted for each CPU value.
var fargateSizes = map[CPU][]memoryRange{
	CPU256:  {{512, 512, 1}, {1024, 2048, 1024}},
	CPU512:  {{1024, 4096, 1024}},
	CPU1024: {{2048, 8192, 1024}},
	CPU2048: {{4096, 16384, 1024}},
	CPU4096: {{8192, 30720, 1024}},
	CPU8192: {{16384, 61440, 4096}},
}

// ValidFargateSize reports whether cpu/memory is a task size Fargate accepts.
func ValidFargateSize(cpu CPU, memory Memory) bool {
	for _, r := range fargateSizes[cpu] {
		if memory >= r.min && memory <= r.max && (memory-r.min)%r.step == 0 {
			return true
		}
	}
	return false
}
