package renderer

// WGSL sources for the two backend variants. Both share the same vertex math
// and fragment stage; they differ only in where per-instance data comes from.
//
// Each instance expands a unit quad spanning [-1, 1] around the sprite
// center: the corner is scaled by (half size × scale), rotated about the
// center by the rotation in degrees, translated to the center position and
// mapped to NDC against the fixed screen size. UVs are the corner remapped to
// [0, 1] and scaled by halfSize/halfMax so samples stay inside the image's
// valid sub-rectangle of its atlas layer; V is flipped inside that
// sub-rectangle to render the image right side up. The atlas layer is the
// instance's object type.

// spriteShaderCommon holds the declarations and stages shared by both
// variants: the screen uniform, the atlas texture array and sampler, the
// vertex output struct, the quad expansion helper and the discarding
// fragment stage.
const spriteShaderCommon = `
struct Screen {
    half_screen: vec2<f32>,
    half_max: vec2<f32>,
};

@group(0) @binding(0) var<uniform> screen: Screen;
@group(0) @binding(1) var atlas: texture_2d_array<f32>;
@group(0) @binding(2) var atlas_sampler: sampler;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
    @location(1) layer: f32,
};

fn expand_quad(
    vertex_index: u32,
    half_size: vec2<f32>,
    object_type: f32,
    center: vec2<f32>,
    scale: f32,
    rotation: f32,
) -> VertexOutput {
    var corners = array<vec2<f32>, 4>(
        vec2<f32>(-1.0, -1.0),
        vec2<f32>(1.0, -1.0),
        vec2<f32>(-1.0, 1.0),
        vec2<f32>(1.0, 1.0),
    );
    let corner = corners[vertex_index];

    let sized = corner * half_size * scale;
    let rad = radians(rotation);
    let c = cos(rad);
    let s = sin(rad);
    let rotated = vec2<f32>(sized.x * c - sized.y * s, sized.x * s + sized.y * c);
    let pos = rotated + center;
    let ndc = (pos - screen.half_screen) / screen.half_screen;

    var out: VertexOutput;
    out.position = vec4<f32>(ndc, 0.0, 1.0);
    let base_uv = 0.5 * (corner + vec2<f32>(1.0, 1.0));
    let uv_scale = half_size / screen.half_max;
    out.uv = vec2<f32>(base_uv.x, 1.0 - base_uv.y) * uv_scale;
    out.layer = object_type;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let color = textureSample(atlas, atlas_sampler, in.uv, i32(in.layer));
    if (color.a < 0.1) {
        discard;
    }
    return color;
}
`

// instancedShaderSource reads per-instance data from vertex attributes
// advanced per instance by the vertex buffer's step mode.
const instancedShaderSource = spriteShaderCommon + `
@vertex
fn vs_main(
    @builtin(vertex_index) vertex_index: u32,
    @location(0) half_size: vec2<f32>,
    @location(1) object_type: f32,
    @location(2) center: vec2<f32>,
    @location(3) scale: f32,
    @location(4) rotation: f32,
) -> VertexOutput {
    return expand_quad(vertex_index, half_size, object_type, center, scale, rotation);
}
`

// pulledShaderSource pulls per-instance data out of a read-only storage
// buffer indexed by instance index. The records are flat f32s with the same
// layout the instanced variant feeds through attributes.
const pulledShaderSource = spriteShaderCommon + `
@group(1) @binding(0) var<storage, read> records: array<f32>;

@vertex
fn vs_main(
    @builtin(vertex_index) vertex_index: u32,
    @builtin(instance_index) instance_index: u32,
) -> VertexOutput {
    let base = instance_index * 7u;
    let half_size = vec2<f32>(records[base], records[base + 1u]);
    let object_type = records[base + 2u];
    let center = vec2<f32>(records[base + 3u], records[base + 4u]);
    let scale = records[base + 5u];
    let rotation = records[base + 6u];
    return expand_quad(vertex_index, half_size, object_type, center, scale, rotation);
}
`
