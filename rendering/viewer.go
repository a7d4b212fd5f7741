// Package rendering is a debug consumer of the kernel's flat buffers:
// an OpenGL viewer that draws the terrain mesh, the creature tube (with
// its overlap glow) and the visible scenery points. It holds all GPU
// state so the kernel stays free of rendering-object ownership.
package rendering

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"slitherworld/creature"
	"slitherworld/terrain"
	"slitherworld/visibility"
)

const vertexShaderSource = `#version 430 core
layout(location = 0) in vec3 aPos;
layout(location = 1) in vec3 aNormal;
layout(location = 2) in vec2 aUV;
layout(location = 3) in float aGlow;

uniform mat4 uProj;
uniform mat4 uView;

out vec3 vNormal;
out vec2 vUV;
out float vGlow;
out vec3 vWorld;

void main() {
    vNormal = aNormal;
    vUV = aUV;
    vGlow = aGlow;
    vWorld = aPos;
    gl_Position = uProj * uView * vec4(aPos, 1.0);
}
`

const fragmentShaderSource = `#version 430 core
in vec3 vNormal;
in vec2 vUV;
in float vGlow;
in vec3 vWorld;

uniform vec3 uLightDir;
uniform vec3 uBaseColor;
uniform int uStripes;

out vec4 fragColor;

void main() {
    float diff = max(dot(normalize(vNormal), uLightDir), 0.0);
    vec3 color = uBaseColor;
    if (uStripes == 1) {
        float band = step(0.5, fract(vUV.x * 2.0));
        color = mix(color, color * 0.55, band);
    }
    color *= 0.25 + 0.75 * diff;
    color = mix(color, vec3(1.0, 0.55, 0.1), clamp(vGlow, 0.0, 1.0) * 0.8);
    fragColor = vec4(color, 1.0);
}
`

// Viewer owns the GLFW window and every GPU buffer the demo draws.
type Viewer struct {
	window *glfw.Window
	width  int
	height int

	program uint32

	terrainVAO   uint32
	terrainVBO   uint32
	terrainEBO   uint32
	terrainCount int32

	tubeVAO   uint32
	tubeVBO   uint32
	tubeEBO   uint32
	tubeCount int32
	tubeCap   int

	capVAO   uint32
	capVBO   uint32
	capEBO   uint32
	capCount int32
	capCap   int

	interleave []float32

	uProj      int32
	uView      int32
	uLightDir  int32
	uBaseColor int32
	uStripes   int32
}

// NewViewer opens the window and compiles the shared shader program.
func NewViewer(width, height int, title string) (*Viewer, error) {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %v", err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %v", err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %v", err)
	}
	fmt.Println("OpenGL version:", gl.GoStr(gl.GetString(gl.VERSION)))

	v := &Viewer{window: window, width: width, height: height}

	vert, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return nil, fmt.Errorf("vertex shader: %v", err)
	}
	frag, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return nil, fmt.Errorf("fragment shader: %v", err)
	}
	v.program, err = linkProgram(vert, frag)
	if err != nil {
		return nil, err
	}
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)

	v.uProj = gl.GetUniformLocation(v.program, gl.Str("uProj\x00"))
	v.uView = gl.GetUniformLocation(v.program, gl.Str("uView\x00"))
	v.uLightDir = gl.GetUniformLocation(v.program, gl.Str("uLightDir\x00"))
	v.uBaseColor = gl.GetUniformLocation(v.program, gl.Str("uBaseColor\x00"))
	v.uStripes = gl.GetUniformLocation(v.program, gl.Str("uStripes\x00"))

	gl.Enable(gl.DEPTH_TEST)
	gl.ClearColor(0.04, 0.05, 0.09, 1.0)

	gl.GenVertexArrays(1, &v.tubeVAO)
	gl.GenBuffers(1, &v.tubeVBO)
	gl.GenBuffers(1, &v.tubeEBO)
	gl.GenVertexArrays(1, &v.capVAO)
	gl.GenBuffers(1, &v.capVBO)
	gl.GenBuffers(1, &v.capEBO)

	return v, nil
}

// SetTerrain uploads the static terrain mesh once per environment.
func (v *Viewer) SetTerrain(m *terrain.Mesh) {
	data := make([]float32, 0, len(m.Positions)*9)
	for _, p := range m.Positions {
		l := p.Len()
		n := p
		if l > 0 {
			n = p.Mul(1 / l)
		}
		data = append(data,
			float32(p.X()), float32(p.Y()), float32(p.Z()),
			float32(n.X()), float32(n.Y()), float32(n.Z()),
			0, 0, // uv unused for terrain
			0) // glow
	}

	gl.GenVertexArrays(1, &v.terrainVAO)
	gl.BindVertexArray(v.terrainVAO)
	gl.GenBuffers(1, &v.terrainVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, v.terrainVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, unsafe.Pointer(&data[0]), gl.STATIC_DRAW)
	setVertexLayout()
	gl.GenBuffers(1, &v.terrainEBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, v.terrainEBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, unsafe.Pointer(&m.Indices[0]), gl.STATIC_DRAW)
	v.terrainCount = int32(len(m.Indices))
	gl.BindVertexArray(0)
}

// SetTube re-uploads the creature buffers; called every frame. Buffers
// are orphaned and refilled, reallocating GPU storage only on growth.
func (v *Viewer) SetTube(m *creature.Mesh, glow []float32) {
	v.tubeCount = int32(len(m.Indices))
	if v.tubeCount == 0 {
		v.capCount = 0
		return
	}

	vcount := len(m.Positions) / 3
	v.interleave = v.interleave[:0]
	for i := 0; i < vcount; i++ {
		g := float32(0)
		ring := i / (m.RadialSegments + 1)
		if n := len(glow); n > 0 {
			// Map tube ring back to a centerline glow sample.
			gi := ring * (n - 1) / maxInt(m.TubularSegments, 1)
			if gi >= n {
				gi = n - 1
			}
			g = glow[gi]
		}
		v.interleave = append(v.interleave,
			m.Positions[i*3], m.Positions[i*3+1], m.Positions[i*3+2],
			m.Normals[i*3], m.Normals[i*3+1], m.Normals[i*3+2],
			m.UVs[i*2], m.UVs[i*2+1],
			g)
	}
	v.tubeCap = upload(v.tubeVAO, v.tubeVBO, v.tubeEBO, v.interleave, m.Indices, v.tubeCap)

	v.capCount = int32(len(m.CapIndices))
	if v.capCount > 0 {
		v.interleave = v.interleave[:0]
		ccount := len(m.CapPositions) / 3
		for i := 0; i < ccount; i++ {
			v.interleave = append(v.interleave,
				m.CapPositions[i*3], m.CapPositions[i*3+1], m.CapPositions[i*3+2],
				m.CapNormals[i*3], m.CapNormals[i*3+1], m.CapNormals[i*3+2],
				m.CapUVs[i*2], m.CapUVs[i*2+1],
				0)
		}
		v.capCap = upload(v.capVAO, v.capVBO, v.capEBO, v.interleave, m.CapIndices, v.capCap)
	}
}

// DrawFrame renders one frame for the given camera.
func (v *Viewer) DrawFrame(cam visibility.Camera, planetRadius float64) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.UseProgram(v.program)

	pos := cam.Position()
	eye := mgl32.Vec3{float32(pos.X()), float32(pos.Y()), float32(pos.Z())}
	view := mgl32.LookAtV(eye, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(45),
		float32(v.width)/float32(v.height),
		float32(planetRadius)*0.01, float32(planetRadius)*20)

	gl.UniformMatrix4fv(v.uProj, 1, false, &proj[0])
	gl.UniformMatrix4fv(v.uView, 1, false, &view[0])
	light := eye.Normalize()
	gl.Uniform3f(v.uLightDir, light.X(), light.Y(), light.Z())

	gl.Uniform1i(v.uStripes, 0)
	gl.Uniform3f(v.uBaseColor, 0.45, 0.52, 0.36)
	if v.terrainCount > 0 {
		gl.BindVertexArray(v.terrainVAO)
		gl.DrawElements(gl.TRIANGLES, v.terrainCount, gl.UNSIGNED_INT, nil)
	}

	gl.Uniform1i(v.uStripes, 1)
	gl.Uniform3f(v.uBaseColor, 0.78, 0.33, 0.42)
	if v.tubeCount > 0 {
		gl.BindVertexArray(v.tubeVAO)
		gl.DrawElements(gl.TRIANGLES, v.tubeCount, gl.UNSIGNED_INT, nil)
	}
	if v.capCount > 0 {
		gl.BindVertexArray(v.capVAO)
		gl.DrawElements(gl.TRIANGLES, v.capCount, gl.UNSIGNED_INT, nil)
	}

	gl.BindVertexArray(0)
	v.window.SwapBuffers()
}

// ShouldClose reports whether the user closed the window.
func (v *Viewer) ShouldClose() bool {
	return v.window.ShouldClose() || v.window.GetKey(glfw.KeyEscape) == glfw.Press
}

// PollEvents pumps the GLFW event queue.
func (v *Viewer) PollEvents() {
	glfw.PollEvents()
}

// Terminate destroys the window and GL context.
func (v *Viewer) Terminate() {
	glfw.Terminate()
}

// upload orphans and refills one interleaved VAO, growing GPU storage
// only when the vertex data exceeds the previous capacity. Returns the
// retained capacity in floats.
func upload(vao, vbo, ebo uint32, data []float32, indices []uint32, capFloats int) int {
	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	if len(data) > capFloats {
		gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, unsafe.Pointer(&data[0]), gl.DYNAMIC_DRAW)
		capFloats = len(data)
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(data)*4, unsafe.Pointer(&data[0]))
	}
	setVertexLayout()
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, unsafe.Pointer(&indices[0]), gl.DYNAMIC_DRAW)
	gl.BindVertexArray(0)
	return capFloats
}

func setVertexLayout() {
	stride := int32(9 * 4)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, unsafe.Pointer(uintptr(0)))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, unsafe.Pointer(uintptr(3*4)))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(2, 2, gl.FLOAT, false, stride, unsafe.Pointer(uintptr(6*4)))
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(3, 1, gl.FLOAT, false, stride, unsafe.Pointer(uintptr(8*4)))
	gl.EnableVertexAttribArray(3)
}

// compileShader compiles a single shader stage.
func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, logLength+1)
		gl.GetShaderInfoLog(shader, logLength, nil, &log[0])
		return 0, fmt.Errorf("%s", log)
	}

	return shader, nil
}

// linkProgram links vertex and fragment shaders into a program.
func linkProgram(vertShader, fragShader uint32) (uint32, error) {
	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, logLength+1)
		gl.GetProgramInfoLog(program, logLength, nil, &log[0])
		return 0, fmt.Errorf("link failed: %s", log)
	}

	return program, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
