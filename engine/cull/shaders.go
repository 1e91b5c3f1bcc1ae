package cull

// GLSL sources for the visibility compute pipelines. They are compiled to
// SPIR-V out-of-band with glslc; the host hands the resulting pipelines to
// the engine through EngineOption values. The sources live here so the
// group sizes and record layouts stay next to the Go constants they must
// match.

// DepthPyramidShaderSource max-reduces one mip level into the next. One
// dispatch per destination mip, PyramidGroupSize x PyramidGroupSize
// threads per group.
const DepthPyramidShaderSource = `#version 450
layout(local_size_x = 8, local_size_y = 8) in;

layout(binding = 0) uniform sampler2D srcDepth;
layout(binding = 1, r32f) uniform writeonly image2D dstDepth;

layout(push_constant) uniform Push {
    uvec2 dstExtent;
} pc;

void main() {
    uvec2 pos = gl_GlobalInvocationID.xy;
    if (pos.x >= pc.dstExtent.x || pos.y >= pc.dstExtent.y) {
        return;
    }
    ivec2 src = ivec2(pos) * 2;
    float d0 = texelFetch(srcDepth, src, 0).r;
    float d1 = texelFetch(srcDepth, src + ivec2(1, 0), 0).r;
    float d2 = texelFetch(srcDepth, src + ivec2(0, 1), 0).r;
    float d3 = texelFetch(srcDepth, src + ivec2(1, 1), 0).r;
    imageStore(dstDepth, ivec2(pos), vec4(max(max(d0, d1), max(d2, d3))));
}
`

// VisibilityCullShaderSource tests one node per invocation against the
// camera frustum and, when occlusion is enabled, against the depth
// pyramid, then appends a draw command to the node's bucket via an atomic
// counter. CullGroupSize threads per group, writing the next frame's
// draw-list slot.
const VisibilityCullShaderSource = `#version 450
layout(local_size_x = 64) in;

struct Node {
    vec3 center;
    float radius;
    uint indexCount;
    uint firstIndex;
    int vertexOffset;
    uint category;
    uint instanceID;
    uint pad0;
    uint pad1;
    uint pad2;
};

struct DrawCommand {
    uint indexCount;
    uint instanceCount;
    uint firstIndex;
    int vertexOffset;
    uint firstInstance;
};

layout(binding = 0) uniform CameraUniform {
    mat4 viewProj;
    mat4 view;
    vec3 cameraPosition;
    float nearPlane;
    float farPlane;
} cam;

layout(binding = 1) readonly buffer Nodes {
    Node nodes[];
};

layout(binding = 2) writeonly buffer Commands {
    DrawCommand commands[];
};

layout(binding = 3) buffer Counts {
    uint counts[6];
};

layout(binding = 4) uniform sampler2D depthPyramid;

layout(push_constant) uniform Push {
    vec4 frustumPlanes[6];
    uint nodeCount;
    uint capacity;
    uint occlusionEnabled;
    uint pyramidMips;
    float depthBias;
    float screenHeight;
    float projScaleY;
} pc;

bool inFrustum(vec3 center, float radius) {
    for (int i = 0; i < 6; i++) {
        vec4 p = pc.frustumPlanes[i];
        if (dot(p.xyz, center) + p.w < -radius) {
            return false;
        }
    }
    return true;
}

bool occluded(vec3 center, float radius) {
    vec4 viewPos = cam.view * vec4(center, 1.0);
    float dist = -viewPos.z;
    if (dist <= radius) {
        return false;
    }
    float closestDist = dist - radius;
    float sphereDepth = cam.farPlane * (closestDist - cam.nearPlane)
        / (closestDist * (cam.farPlane - cam.nearPlane));
    vec4 clip = cam.viewProj * vec4(center, 1.0);
    if (clip.w <= 0.0) {
        return false;
    }
    vec2 uv = clip.xy / clip.w * 0.5 + 0.5;
    if (any(lessThan(uv, vec2(0.0))) || any(greaterThan(uv, vec2(1.0)))) {
        return false;
    }
    float footprint = radius / dist * pc.projScaleY * pc.screenHeight;
    float level = clamp(ceil(log2(max(footprint, 1.0))), 0.0, float(pc.pyramidMips - 1));
    float maxDepth = textureLod(depthPyramid, uv, level).r;
    return sphereDepth > maxDepth + pc.depthBias;
}

void main() {
    uint id = gl_GlobalInvocationID.x;
    if (id >= pc.nodeCount) {
        return;
    }
    Node node = nodes[id];
    if (!inFrustum(node.center, node.radius)) {
        return;
    }
    if (pc.occlusionEnabled != 0 && occluded(node.center, node.radius)) {
        return;
    }
    uint bucket = min(node.category, 5u);
    uint slot = atomicAdd(counts[bucket], 1u);
    if (slot >= pc.capacity) {
        atomicMin(counts[bucket], pc.capacity);
        return;
    }
    DrawCommand cmd;
    cmd.indexCount = node.indexCount;
    cmd.instanceCount = 1u;
    cmd.firstIndex = node.firstIndex;
    cmd.vertexOffset = node.vertexOffset;
    cmd.firstInstance = node.instanceID;
    commands[bucket * pc.capacity + slot] = cmd;
}
`
