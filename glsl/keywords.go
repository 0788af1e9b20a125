// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import "strings"

type set = map[string]struct{}

// builtinTypes contains the built-in type names. They lex as identifiers and
// the parser recognizes them here.
var builtinTypes = set{
	// Basic types
	"void": {}, "bool": {}, "int": {}, "uint": {}, "float": {}, "double": {},

	// Vector types
	"vec2": {}, "vec3": {}, "vec4": {},
	"ivec2": {}, "ivec3": {}, "ivec4": {},
	"uvec2": {}, "uvec3": {}, "uvec4": {},
	"bvec2": {}, "bvec3": {}, "bvec4": {},
	"dvec2": {}, "dvec3": {}, "dvec4": {},

	// Matrix types
	"mat2": {}, "mat3": {}, "mat4": {},
	"mat2x2": {}, "mat2x3": {}, "mat2x4": {},
	"mat3x2": {}, "mat3x3": {}, "mat3x4": {},
	"mat4x2": {}, "mat4x3": {}, "mat4x4": {},
	"dmat2": {}, "dmat3": {}, "dmat4": {},
	"dmat2x2": {}, "dmat2x3": {}, "dmat2x4": {},
	"dmat3x2": {}, "dmat3x3": {}, "dmat3x4": {},
	"dmat4x2": {}, "dmat4x3": {}, "dmat4x4": {},

	// Sampler types
	"sampler1D": {}, "sampler2D": {}, "sampler3D": {},
	"samplerCube": {}, "sampler2DRect": {},
	"sampler1DShadow": {}, "sampler2DShadow": {}, "samplerCubeShadow": {}, "sampler2DRectShadow": {},
	"sampler1DArray": {}, "sampler2DArray": {},
	"sampler1DArrayShadow": {}, "sampler2DArrayShadow": {},
	"samplerCubeArray": {}, "samplerCubeArrayShadow": {},
	"samplerBuffer": {}, "sampler2DMS": {}, "sampler2DMSArray": {},

	// Integer sampler types
	"isampler1D": {}, "isampler2D": {}, "isampler3D": {},
	"isamplerCube": {}, "isampler2DRect": {},
	"isampler1DArray": {}, "isampler2DArray": {},
	"isamplerCubeArray": {},
	"isamplerBuffer":    {}, "isampler2DMS": {}, "isampler2DMSArray": {},

	// Unsigned integer sampler types
	"usampler1D": {}, "usampler2D": {}, "usampler3D": {},
	"usamplerCube": {}, "usampler2DRect": {},
	"usampler1DArray": {}, "usampler2DArray": {},
	"usamplerCubeArray": {},
	"usamplerBuffer":    {}, "usampler2DMS": {}, "usampler2DMSArray": {},

	// Image types
	"image1D": {}, "image2D": {}, "image3D": {},
	"imageCube": {}, "image2DRect": {},
	"image1DArray": {}, "image2DArray": {},
	"imageCubeArray": {},
	"imageBuffer":    {}, "image2DMS": {}, "image2DMSArray": {},
	"iimage1D": {}, "iimage2D": {}, "iimage3D": {},
	"iimageCube": {}, "iimage2DRect": {},
	"iimage1DArray": {}, "iimage2DArray": {},
	"iimageCubeArray": {},
	"iimageBuffer":    {}, "iimage2DMS": {}, "iimage2DMSArray": {},
	"uimage1D": {}, "uimage2D": {}, "uimage3D": {},
	"uimageCube": {}, "uimage2DRect": {},
	"uimage1DArray": {}, "uimage2DArray": {},
	"uimageCubeArray": {},
	"uimageBuffer":    {}, "uimage2DMS": {}, "uimage2DMSArray": {},

	// Atomic counter types
	"atomic_uint": {},
}

// futureReserved contains words reserved for future use.
var futureReserved = set{
	"common": {}, "partition": {}, "active": {},
	"asm": {}, "class": {}, "union": {}, "enum": {}, "typedef": {}, "template": {}, "this": {},
	"resource": {},
	"goto":     {},
	"inline":   {}, "noinline": {}, "public": {}, "static": {}, "extern": {}, "external": {}, "interface": {},
	"long": {}, "short": {}, "half": {}, "fixed": {}, "unsigned": {}, "superp": {},
	"input": {}, "output": {},
	"hvec2": {}, "hvec3": {}, "hvec4": {}, "fvec2": {}, "fvec3": {}, "fvec4": {},
	"sampler3DRect": {},
	"filter":        {},
	"sizeof":        {}, "cast": {},
	"namespace": {}, "using": {},
	"subroutine": {},
}

// builtinVariables contains built-in variables and constants of every
// profile.
var builtinVariables = set{
	// Vertex
	"gl_VertexID": {}, "gl_InstanceID": {}, "gl_VertexIndex": {}, "gl_InstanceIndex": {},
	"gl_Position": {}, "gl_PointSize": {}, "gl_ClipDistance": {}, "gl_CullDistance": {},
	"gl_PerVertex": {}, "gl_in": {}, "gl_out": {},

	// Fragment
	"gl_FragCoord": {}, "gl_FrontFacing": {}, "gl_PointCoord": {},
	"gl_SampleID": {}, "gl_SamplePosition": {}, "gl_SampleMaskIn": {},
	"gl_FragDepth": {}, "gl_SampleMask": {},
	"gl_Layer": {}, "gl_ViewportIndex": {},
	"gl_HelperInvocation": {},

	// Compute
	"gl_NumWorkGroups": {}, "gl_WorkGroupSize": {}, "gl_WorkGroupID": {},
	"gl_LocalInvocationID": {}, "gl_GlobalInvocationID": {}, "gl_LocalInvocationIndex": {},

	// Tessellation
	"gl_PatchVerticesIn": {}, "gl_PrimitiveID": {}, "gl_InvocationID": {},
	"gl_TessLevelOuter": {}, "gl_TessLevelInner": {}, "gl_TessCoord": {},

	// Geometry
	"gl_PrimitiveIDIn": {},

	// Constants
	"gl_MaxVertexAttribs": {}, "gl_MaxVertexUniformVectors": {},
	"gl_MaxVaryingVectors": {}, "gl_MaxVertexTextureImageUnits": {},
	"gl_MaxCombinedTextureImageUnits": {}, "gl_MaxTextureImageUnits": {},
	"gl_MaxFragmentUniformVectors": {}, "gl_MaxDrawBuffers": {},
	"gl_MaxClipDistances": {}, "gl_MaxCullDistances": {},
	"gl_MaxComputeWorkGroupCount": {}, "gl_MaxComputeWorkGroupSize": {},
	"gl_MaxComputeUniformComponents": {}, "gl_MaxComputeTextureImageUnits": {},
	"gl_MaxComputeImageUniforms": {}, "gl_MaxComputeAtomicCounters": {},
	"gl_MaxComputeAtomicCounterBuffers": {},
}

// compatibilityVariables exist only before 1.40, in the compatibility
// profile and in ES 1.00.
var compatibilityVariables = set{
	"gl_FragColor": {}, "gl_FragData": {},
	"gl_Vertex": {}, "gl_Normal": {}, "gl_Color": {}, "gl_SecondaryColor": {},
	"gl_MultiTexCoord0": {}, "gl_MultiTexCoord1": {}, "gl_MultiTexCoord2": {}, "gl_MultiTexCoord3": {},
	"gl_MultiTexCoord4": {}, "gl_MultiTexCoord5": {}, "gl_MultiTexCoord6": {}, "gl_MultiTexCoord7": {},
	"gl_FogCoord": {}, "gl_TexCoord": {}, "gl_FogFragCoord": {}, "gl_ClipVertex": {},
	"gl_FrontColor": {}, "gl_BackColor": {}, "gl_FrontSecondaryColor": {}, "gl_BackSecondaryColor": {},
	"gl_ModelViewMatrix": {}, "gl_ProjectionMatrix": {}, "gl_ModelViewProjectionMatrix": {},
	"gl_NormalMatrix": {}, "gl_NormalScale": {}, "gl_TextureMatrix": {},
	"gl_ModelViewMatrixInverse": {}, "gl_ProjectionMatrixInverse": {},
	"gl_ModelViewProjectionMatrixInverse": {}, "gl_TextureMatrixInverse": {},
	"gl_ModelViewMatrixTranspose": {}, "gl_ProjectionMatrixTranspose": {},
	"gl_ModelViewProjectionMatrixTranspose": {}, "gl_TextureMatrixTranspose": {},
	"gl_ModelViewMatrixInverseTranspose": {}, "gl_ProjectionMatrixInverseTranspose": {},
	"gl_ModelViewProjectionMatrixInverseTranspose": {}, "gl_TextureMatrixInverseTranspose": {},
	"gl_Fog": {}, "gl_LightSource": {}, "gl_LightModel": {},
	"gl_FrontMaterial": {}, "gl_BackMaterial": {},
	"gl_FrontLightProduct": {}, "gl_BackLightProduct": {},
	"gl_FrontLightModelProduct": {}, "gl_BackLightModelProduct": {},
	"gl_TextureEnvColor": {}, "gl_ClipPlane": {}, "gl_Point": {},
	"gl_EyePlaneS": {}, "gl_EyePlaneT": {}, "gl_EyePlaneR": {}, "gl_EyePlaneQ": {},
	"gl_ObjectPlaneS": {}, "gl_ObjectPlaneT": {}, "gl_ObjectPlaneR": {}, "gl_ObjectPlaneQ": {},
	"gl_MaxLights": {}, "gl_MaxClipPlanes": {}, "gl_MaxTextureUnits": {},
	"gl_MaxTextureCoords": {}, "gl_MaxVaryingFloats": {},
}

// builtinFunctions contains the built-in functions of every version.
var builtinFunctions = set{
	"radians": {}, "degrees": {}, "sin": {}, "cos": {}, "tan": {},
	"asin": {}, "acos": {}, "atan": {}, "sinh": {}, "cosh": {}, "tanh": {},
	"asinh": {}, "acosh": {}, "atanh": {},
	"pow": {}, "exp": {}, "log": {}, "exp2": {}, "log2": {}, "sqrt": {}, "inversesqrt": {},
	"abs": {}, "sign": {}, "floor": {}, "trunc": {}, "round": {}, "roundEven": {}, "ceil": {}, "fract": {},
	"mod": {}, "modf": {}, "min": {}, "max": {}, "clamp": {}, "mix": {}, "step": {}, "smoothstep": {},
	"isnan": {}, "isinf": {},
	"floatBitsToInt": {}, "floatBitsToUint": {}, "intBitsToFloat": {}, "uintBitsToFloat": {},
	"fma":   {},
	"frexp": {}, "ldexp": {},
	"packUnorm2x16": {}, "packSnorm2x16": {}, "packUnorm4x8": {}, "packSnorm4x8": {},
	"unpackUnorm2x16": {}, "unpackSnorm2x16": {}, "unpackUnorm4x8": {}, "unpackSnorm4x8": {},
	"packHalf2x16": {}, "unpackHalf2x16": {},
	"packDouble2x32": {}, "unpackDouble2x32": {},
	"length": {}, "distance": {}, "dot": {}, "cross": {}, "normalize": {}, "faceforward": {}, "reflect": {}, "refract": {},
	"matrixCompMult": {}, "outerProduct": {}, "transpose": {}, "determinant": {}, "inverse": {},
	"lessThan": {}, "lessThanEqual": {}, "greaterThan": {}, "greaterThanEqual": {}, "equal": {}, "notEqual": {},
	"any": {}, "all": {}, "not": {},
	"uaddCarry": {}, "usubBorrow": {}, "umulExtended": {}, "imulExtended": {},
	"bitfieldExtract": {}, "bitfieldInsert": {}, "bitfieldReverse": {}, "bitCount": {}, "findLSB": {}, "findMSB": {},
	"textureSize": {}, "textureQueryLod": {}, "textureQueryLevels": {}, "textureSamples": {},
	"texture": {}, "textureProj": {}, "textureLod": {}, "textureOffset": {},
	"texelFetch": {}, "texelFetchOffset": {},
	"textureProjLod": {}, "textureProjOffset": {}, "textureLodOffset": {}, "textureProjLodOffset": {},
	"textureGrad": {}, "textureGradOffset": {}, "textureProjGrad": {}, "textureProjGradOffset": {},
	"textureGather": {}, "textureGatherOffset": {}, "textureGatherOffsets": {},
	"dFdx": {}, "dFdy": {}, "dFdxFine": {}, "dFdyFine": {}, "dFdxCoarse": {}, "dFdyCoarse": {},
	"fwidth": {}, "fwidthFine": {}, "fwidthCoarse": {},
	"interpolateAtCentroid": {}, "interpolateAtSample": {}, "interpolateAtOffset": {},
	"noise1": {}, "noise2": {}, "noise3": {}, "noise4": {},
	"EmitStreamVertex": {}, "EndStreamPrimitive": {}, "EmitVertex": {}, "EndPrimitive": {},
	"barrier": {}, "memoryBarrier": {}, "memoryBarrierAtomicCounter": {}, "memoryBarrierBuffer": {},
	"memoryBarrierShared": {}, "memoryBarrierImage": {}, "groupMemoryBarrier": {},
	"imageLoad": {}, "imageStore": {}, "imageAtomicAdd": {}, "imageAtomicMin": {}, "imageAtomicMax": {},
	"imageAtomicAnd": {}, "imageAtomicOr": {}, "imageAtomicXor": {}, "imageAtomicExchange": {},
	"imageAtomicCompSwap": {}, "imageSize": {}, "imageSamples": {},
	"atomicCounterIncrement": {}, "atomicCounterDecrement": {}, "atomicCounter": {},
	"atomicCounterAdd": {}, "atomicCounterSubtract": {}, "atomicCounterMin": {}, "atomicCounterMax": {},
	"atomicCounterAnd": {}, "atomicCounterOr": {}, "atomicCounterXor": {}, "atomicCounterExchange": {},
	"atomicCounterCompSwap": {},
	"atomicAdd":             {}, "atomicMin": {}, "atomicMax": {}, "atomicAnd": {}, "atomicOr": {}, "atomicXor": {},
	"atomicExchange": {}, "atomicCompSwap": {},
}

// compatibilityFunctions exist only where compatibilityVariables do.
var compatibilityFunctions = set{
	"texture1D": {}, "texture2D": {}, "texture3D": {}, "textureCube": {},
	"texture2DLod": {}, "texture2DProj": {}, "texture2DProjLod": {}, "texture3DLod": {}, "textureCubeLod": {},
	"texture2DGradARB": {}, "texture2DLodEXT": {}, "texture2DRect": {},
	"shadow1D": {}, "shadow2D": {}, "shadow2DLod": {}, "shadow2DProj": {},
	"ftransform": {},
}

// IsBuiltinType reports whether name is a built-in type.
func IsBuiltinType(name string) bool {
	_, ok := builtinTypes[name]
	return ok
}

// IsBuiltinFunction reports whether name is a built-in function.
func IsBuiltinFunction(name string) bool {
	if _, ok := builtinFunctions[name]; ok {
		return true
	}
	_, ok := compatibilityFunctions[name]
	return ok
}

// IsBuiltinFunctionIn reports whether name is a built-in function of
// version v.
func IsBuiltinFunctionIn(name string, v Version) bool {
	if _, ok := compatibilityFunctions[name]; ok {
		return v.AllowsLegacy()
	}
	_, ok := builtinFunctions[name]
	return ok
}

// IsBuiltinVariable reports whether name is a built-in variable or
// constant of any version. Every gl_ name is treated as built-in; the
// prefix is reserved.
func IsBuiltinVariable(name string) bool {
	if _, ok := builtinVariables[name]; ok {
		return true
	}
	return strings.HasPrefix(name, "gl_")
}

// IsBuiltinVariableIn reports whether name is a built-in variable of
// version v. Compatibility built-ins such as gl_TextureMatrix are rejected
// where the version has no compatibility profile. Other gl_ names are
// accepted, since extensions add their own.
func IsBuiltinVariableIn(name string, v Version) bool {
	if _, ok := compatibilityVariables[name]; ok {
		return v.AllowsLegacy()
	}
	return IsBuiltinVariable(name)
}

// IsReserved checks if a name is a keyword, a built-in type or a word
// reserved for future use under version v. Pack declarations with such names
// do not compile.
func IsReserved(name string, v Version) bool {
	if lookupKeyword(name, v) != TokenIdent {
		return true
	}
	if _, ok := builtinTypes[name]; ok {
		return true
	}
	_, ok := futureReserved[name]
	return ok
}
