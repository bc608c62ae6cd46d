package sandbox

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/zpdzap/sitebuilder/internal/logging"
)

// DockerOptions configures a container-backed sandbox.
type DockerOptions struct {
	Name  string // container name suffix, usually the project name
	Image string
	Ports []int // container ports to publish on random host ports
	Env   map[string]string
}

// Docker runs the project inside a long-lived container. Project files live
// in a host directory bind-mounted at /workspace, so mounts are plain host
// writes and processes run through docker exec.
type Docker struct {
	opts  DockerOptions
	files *Local

	mu        sync.Mutex
	container string
	ports     map[string]string
	ready     readyNotifier
}

// NewDocker returns a container sandbox whose files live in dir.
func NewDocker(dir string, opts DockerOptions) *Docker {
	if opts.Image == "" {
		opts.Image = "node:20"
	}
	if opts.Name == "" {
		opts.Name = "project"
	}
	return &Docker{opts: opts, files: NewLocal(dir)}
}

func (d *Docker) containerName() string {
	return fmt.Sprintf("sb-%s", d.opts.Name)
}

func (d *Docker) Boot(ctx context.Context) error {
	d.ready.reset()
	if err := d.files.Boot(ctx); err != nil {
		return err
	}

	name := d.containerName()
	// A container left over from an earlier run would hold the name.
	if inspectStatus(ctx, name) != "" {
		exec.CommandContext(ctx, "docker", "rm", "-f", name).Run()
	}

	args := []string{
		"run", "-d",
		"--name", name,
		"-v", fmt.Sprintf("%s:/workspace", d.files.Dir),
		"-w", "/workspace",
	}
	d.mu.Lock()
	ports := append([]int(nil), d.opts.Ports...)
	d.mu.Unlock()
	for _, port := range ports {
		args = append(args, "-p", fmt.Sprintf("0:%d", port))
	}
	for k, v := range d.opts.Env {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, v))
	}
	args = append(args, d.opts.Image, "sleep", "infinity")

	out, err := exec.CommandContext(ctx, "docker", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("docker run failed: %s: %w", strings.TrimSpace(string(out)), err)
	}

	id := strings.TrimSpace(string(out))
	if len(id) > 12 {
		id = id[:12]
	}
	published := queryPorts(ctx, name)

	d.mu.Lock()
	d.container = name
	d.ports = published
	d.mu.Unlock()

	logging.Debug("container started", "name", name, "id", id, "ports", published)
	return nil
}

func (d *Docker) Mount(ctx context.Context, files FileSystemTree) error {
	return d.files.Mount(ctx, files)
}

func (d *Docker) Spawn(ctx context.Context, name string, args ...string) (Process, error) {
	d.mu.Lock()
	container := d.container
	d.mu.Unlock()
	if container == "" {
		return nil, fmt.Errorf("sandbox not booted")
	}

	execArgs := append([]string{"exec", "-i", "-w", "/workspace", container, name}, args...)
	cmd := exec.CommandContext(ctx, "docker", execArgs...)
	p, err := startProcess(cmd, func(line string) {
		port, _, ok := DetectServerURL(line)
		if !ok {
			return
		}
		if host, url, ok := d.hostAddress(port); ok {
			d.ready.notify(host, url)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("starting %s in %s: %w", name, container, err)
	}
	return p, nil
}

func (d *Docker) OnServerReady(fn ReadyFunc) { d.ready.add(fn) }

// Publish sets the container ports published on the next Boot.
func (d *Docker) Publish(ports []int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opts.Ports = append([]int(nil), ports...)
}

// hostAddress maps a container port to the published host port.
func (d *Docker) hostAddress(containerPort int) (int, string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	hostPort, ok := d.ports[strconv.Itoa(containerPort)]
	if !ok {
		logging.Debug("server port not published", "port", containerPort)
		return 0, "", false
	}
	port, err := strconv.Atoi(hostPort)
	if err != nil {
		return 0, "", false
	}
	return port, fmt.Sprintf("http://localhost:%d", port), true
}

// Close stops and removes the container.
func (d *Docker) Close() error {
	d.mu.Lock()
	name := d.container
	d.container = ""
	d.mu.Unlock()
	if name == "" {
		return nil
	}
	exec.Command("docker", "stop", name).Run()
	if out, err := exec.Command("docker", "rm", name).CombinedOutput(); err != nil {
		return fmt.Errorf("docker rm failed: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}

func queryPorts(ctx context.Context, containerName string) map[string]string {
	out, err := exec.CommandContext(ctx, "docker", "port", containerName).CombinedOutput()
	if err != nil {
		return map[string]string{}
	}
	return parsePorts(string(out))
}

// parsePorts parses docker port output: "5173/tcp -> 0.0.0.0:49321".
func parsePorts(out string) map[string]string {
	ports := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " -> ", 2)
		if len(parts) != 2 {
			continue
		}
		containerPort := strings.SplitN(parts[0], "/", 2)[0]
		i := strings.LastIndex(parts[1], ":")
		if i < 0 {
			continue
		}
		if _, seen := ports[containerPort]; !seen {
			ports[containerPort] = parts[1][i+1:]
		}
	}
	return ports
}

func inspectStatus(ctx context.Context, containerName string) string {
	out, err := exec.CommandContext(ctx, "docker", "inspect", "-f", "{{.State.Status}}", containerName).CombinedOutput()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

var (
	_ Sandbox       = (*Docker)(nil)
	_ PortPublisher = (*Docker)(nil)
)
